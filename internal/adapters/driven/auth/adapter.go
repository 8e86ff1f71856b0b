package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

var _ driven.AuthAdapter = (*Adapter)(nil)

// issuer is stamped into every token and required on parse.
const issuer = "signpost-sync"

// jwtClaims carries the role next to the registered claims
type jwtClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Adapter hashes the admin password and issues the admin tokens.
type Adapter struct {
	jwtSecret  []byte
	bcryptCost int
}

// NewAdapter creates a new auth adapter with the given JWT secret
func NewAdapter(jwtSecret string) *Adapter {
	return NewAdapterWithCost(jwtSecret, bcrypt.DefaultCost)
}

// NewAdapterWithCost creates a new auth adapter with custom bcrypt cost
func NewAdapterWithCost(jwtSecret string, bcryptCost int) *Adapter {
	return &Adapter{
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// HashPassword bcrypts the admin password. bcrypt ignores input past
// 72 bytes, so longer passwords are rejected instead of truncated.
func (a *Adapter) HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", fmt.Errorf("%w: password longer than 72 bytes", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (a *Adapter) VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs the claims with HS256.
func (a *Adapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			Subject:   claims.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}).SignedString(a.jwtSecret)
}

func (a *Adapter) key(*jwt.Token) (any, error) {
	return a.jwtSecret, nil
}

// ParseToken verifies signature, issuer and expiry. Expired tokens map to
// domain.ErrTokenExpired, every other failure to domain.ErrTokenInvalid.
func (a *Adapter) ParseToken(tokenString string) (*domain.TokenClaims, error) {
	var claims jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, a.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	out := &domain.TokenClaims{
		ID:      claims.ID,
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return out, nil
}
