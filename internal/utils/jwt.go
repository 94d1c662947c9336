package utils // package utils provides helpers for token issuance and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token classification errors returned by ParseToken. Callers translate
// these into 401 responses without leaking parser internals.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// SignedToken pairs a serialized JWT with its expiration time.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // UTC expiration time
}

// Claims carries the verified contents of a token. Role is empty for
// refresh tokens, which bind only the user identifier.
type Claims struct {
	UserID uint64
	Role   string
}

// NewAccessToken builds and signs an HS256 access token with claims
// {sub, role, exp, iat}. Access tokens prove identity for a single request
// window and are verified on every protected route.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh token with claims
// {sub, jti, exp, iat}. It must be signed with the refresh secret, which is
// independent from the access secret so that compromise of one class of
// token can never forge the other. The random jti makes every issuance a
// distinct token; without it two logins in the same second would mint
// identical JWTs and overwriting the stored digest would revoke nothing.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (SignedToken, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return SignedToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": hex.EncodeToString(nonce),
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies raw against the given secret and returns the embedded
// claims. Only HMAC signatures are accepted; an expired token is reported as
// ErrExpiredToken, every other failure as ErrInvalidToken.
func ParseToken(raw, secret string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := mc["sub"].(float64) // JSON numbers decode as float64
	if !ok || sub < 1 {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{UserID: uint64(sub)}
	if role, ok := mc["role"].(string); ok {
		c.Role = role
	}
	return c, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a refresh token. Only the
// digest is persisted on the user record, so a leaked users table cannot be
// replayed into live sessions; the stale-token check compares digests.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
