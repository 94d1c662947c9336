package config

import "time"

// RateLimitConfig defines settings for the fixed-window rate limiter applied
// under /api. Window and Max map directly to the RATE_LIMIT_WINDOW_MS and
// RATE_LIMIT_MAX_REQUESTS environment variables: at most Max requests per
// client IP are allowed inside each Window.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	Max     int
	Prefix  string // redis key namespace
}

// LoadRateLimitConfig reads limiter settings from the environment. Defaults
// allow 100 requests per 15 minutes per client IP.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Window:  time.Duration(atoi(getenv("RATE_LIMIT_WINDOW_MS", "900000"))) * time.Millisecond,
		Max:     atoi(getenv("RATE_LIMIT_MAX_REQUESTS", "100")),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	return cfg
}
