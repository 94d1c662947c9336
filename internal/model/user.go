package model

import "time"

// Roles assignable to a user account. New accounts default to RoleUser.
// RoleAdmin may read and mutate tasks owned by any user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors the `users` table. PasswordHash and RefreshHash never leave
// the process: handlers define separate response types that expose only the
// public fields.
//
// RefreshHash holds the SHA-256 digest of the single active refresh token.
// It is overwritten on every login and cleared (NULL) on logout, which is
// what revokes previously issued refresh tokens.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email (stored lower-cased)
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role ("user" or "admin")
	IsActive     bool      // users.is_active
	RefreshHash  *string   // users.refresh_hash (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
