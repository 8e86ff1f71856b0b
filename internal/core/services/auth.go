package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driving"
)

var _ driving.AuthService = (*authService)(nil)

// adminSubject is the subject of every token issued for the admin password.
const adminSubject = "admin"

const defaultTokenTTL = 24 * time.Hour

// authService trades the single admin password for short-lived tokens.
// There are no user accounts.
type authService struct {
	authAdapter driven.AuthAdapter
	adminHash   string
	tokenTTL    time.Duration
	now         func() time.Time
}

// AuthServiceConfig holds dependencies for the auth service.
type AuthServiceConfig struct {
	AuthAdapter       driven.AuthAdapter
	AdminPasswordHash string        // bcrypt hash; empty disables admin login
	TokenTTL          time.Duration // default: 24h
	Now               func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg AuthServiceConfig) driving.AuthService {
	s := &authService{
		authAdapter: cfg.AuthAdapter,
		adminHash:   cfg.AdminPasswordHash,
		tokenTTL:    cfg.TokenTTL,
		now:         cfg.Now,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	switch {
	case req.Password == "":
		return nil, domain.ErrInvalidInput
	case s.adminHash == "":
		return nil, domain.ErrUnauthorized
	case !s.authAdapter.VerifyPassword(req.Password, s.adminHash):
		return nil, domain.ErrInvalidCredentials
	}

	issued := s.now()
	expires := issued.Add(s.tokenTTL)
	token, err := s.authAdapter.GenerateToken(&domain.TokenClaims{
		ID:        uuid.NewString(),
		Subject:   adminSubject,
		Role:      domain.RoleAdmin,
		IssuedAt:  issued.Unix(),
		ExpiresAt: expires.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &domain.LoginResponse{Token: token, ExpiresAt: expires}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case err != nil:
		return nil, domain.ErrTokenInvalid
	case s.now().Unix() > claims.ExpiresAt:
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}
