package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-manager-api/internal/config"
	"github.com/iliyamo/task-manager-api/internal/middleware"
	"github.com/iliyamo/task-manager-api/internal/model"
	"github.com/iliyamo/task-manager-api/internal/repository"
	"github.com/iliyamo/task-manager-api/internal/utils"
)

// UserStore is the slice of the user repository the auth handlers use.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	SetRefreshHash(ctx context.Context, id uint64, hash *string) error
	UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// AuthHandler bundles the dependencies of the auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- request/response shapes -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is accepted as-is; gating admin self-registration behind an
	// authenticated path is left to deployment policy.
	Role string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type profileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// userDTO is the public projection of a user. The password hash and refresh
// token digest are deliberately absent so they can never be serialized.
type userDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserDTO(u model.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// currentUser reads the identity stored by the bearer middleware.
func currentUser(c echo.Context) (uint64, string) {
	uid, _ := c.Get(middleware.CtxUserID).(uint64)
	role, _ := c.Get(middleware.CtxRole).(string)
	return uid, role
}

// issueTokens mints an access/refresh pair and persists the refresh digest
// on the user record, rotating out whatever token was live before.
func (h *AuthHandler) issueTokens(ctx context.Context, u model.User) (access, refresh string, err error) {
	at, err := utils.NewAccessToken(h.Cfg.AccessSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return "", "", err
	}
	rt, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return "", "", err
	}
	hash := utils.HashRefreshRaw(rt.Token)
	if err := h.Users.SetRefreshHash(ctx, u.ID, &hash); err != nil {
		return "", "", err
	}
	return at.Token, rt.Token, nil
}

// Register creates a user, defaulting the role to "user", and returns the
// public profile together with a fresh token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validateRegister(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	ctx := c.Request().Context()
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	uid, err := h.Users.Create(ctx, req.Name, req.Email, hash, role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, "User already exists with this email")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	access, refresh, err := h.issueTokens(ctx, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusCreated, "User registered successfully", echo.Map{
		"user":         toUserDTO(u),
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// Login verifies credentials and rotates the refresh token. A missing user
// and a wrong password produce the identical response so callers cannot
// probe which emails are registered.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validateLogin(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "Account is deactivated")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	access, refresh, err := h.issueTokens(ctx, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Login successful", echo.Map{
		"user":         toUserDTO(u),
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, _ := currentUser(c)
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "User profile fetched successfully", echo.Map{
		"user": toUserDTO(u),
	})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated here, so its original expiry remains
// the hard session ceiling. A token that verifies cryptographically but no
// longer matches the stored digest was rotated or revoked and is rejected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "Refresh token is required")
	}
	raw := strings.TrimSpace(req.RefreshToken)

	claims, err := utils.ParseToken(raw, h.Cfg.RefreshSecret)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if u.RefreshHash == nil || *u.RefreshHash != utils.HashRefreshRaw(raw) {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}

	at, err := utils.NewAccessToken(h.Cfg.AccessSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Access token refreshed successfully", echo.Map{
		"accessToken": at.Token,
	})
}

// Logout clears the stored refresh token digest. Calling it twice is
// harmless; the second call clears an already-empty field.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, _ := currentUser(c)
	if err := h.Users.SetRefreshHash(c.Request().Context(), uid, nil); err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Logout successful", nil)
}

// UpdateProfile applies a partial update of name and/or email.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	if errs := validateProfile(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}

	uid, _ := currentUser(c)
	u, err := h.Users.UpdateProfile(c.Request().Context(), uid, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Profile updated successfully", echo.Map{
		"user": toUserDTO(u),
	})
}

// ChangePassword re-hashes and stores the new password after verifying the
// current one. The active refresh token is left untouched.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	if errs := validateChangePassword(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}

	uid, _ := currentUser(c)
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusUnauthorized, "Current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Password changed successfully", nil)
}
