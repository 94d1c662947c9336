package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/task-manager-api/internal/model"
)

const userCols = "id, name, email, password_hash, role, is_active, refresh_hash, created_at, updated_at"

// UserRepo persists users. The refresh_hash column holds the SHA-256 digest
// of the one active refresh token per user, or NULL when logged out.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.RefreshHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user with an already-hashed password and returns the new
// id. Email is normalized to lower case; a duplicate maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// SetRefreshHash overwrites the stored refresh token digest. Passing nil
// clears it (logout). Overwriting is the revocation mechanism: whatever
// token was previously live stops matching and is rejected on refresh.
func (r *UserRepo) SetRefreshHash(ctx context.Context, id uint64, hash *string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET refresh_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateProfile applies the non-nil fields and returns the updated row.
// An email that belongs to a different user maps to ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error) {
	if email != nil {
		norm := strings.ToLower(strings.TrimSpace(*email))
		var other uint64
		err := r.DB.QueryRowContext(ctx,
			"SELECT id FROM users WHERE email=? AND id<>? LIMIT 1", norm, id).Scan(&other)
		switch {
		case err == nil:
			return model.User{}, ErrEmailExists
		case !errors.Is(err, sql.ErrNoRows):
			return model.User{}, err
		}
		email = &norm
	}
	if name != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", *name, id); err != nil {
			return model.User{}, err
		}
	}
	if email != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET email=? WHERE id=?", *email, id); err != nil {
			// Unique index still guards against a concurrent claim of the
			// same address between the check above and this write.
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// isDuplicate detects MySQL error 1062 (duplicate entry).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
