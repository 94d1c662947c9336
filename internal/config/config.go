package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration values. It is built once at startup
// and passed by value to the components that need it; nothing mutates it
// afterwards. Every field has a development default so the server can boot
// from a bare environment, but the two signing secrets must be overridden in
// any real deployment.
type Config struct {
	Env            string // application environment (e.g. "development", "production")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AccessSecret   string // secret used to sign access tokens
	RefreshSecret  string // independent secret used to sign refresh tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	ClientURL      string // browser origin allowed by CORS
	LogLevel       string // log verbosity: debug, info, warn or error
}

// Load reads configuration from environment variables, falling back to
// development defaults. The access and refresh secrets are deliberately
// distinct so that a leaked access secret cannot be used to forge refresh
// tokens, and vice versa.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "development"),
		Port:           getenv("APP_PORT", "5000"),
		DBUser:         getenv("DB_USER", "root"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         getenv("DB_NAME", "taskmanager"),
		AccessSecret:   getenv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		RefreshSecret:  getenv("JWT_REFRESH_SECRET", "your-refresh-secret-key"),
		AccessTTLMin:   intenv("ACCESS_TOKEN_TTL_MIN", 10080), // 7 days
		RefreshTTLDays: intenv("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     intenv("BCRYPT_COST", 10),
		ClientURL:      getenv("CLIENT_URL", "http://localhost:5173"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

// getenv returns the value of key, or def when unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// atoi converts s to an int, returning 0 when s is not a valid integer.
// Callers treat a zero result as "use the default".
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// intenv returns the integer value of key. Unset, malformed or non-positive
// values fall back to def so a typo in the environment cannot zero out a TTL.
func intenv(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
