package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven/mocks"
)

func newTestAuthService(adminHash string) (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(AuthServiceConfig{
		AuthAdapter:       authAdapter,
		AdminPasswordHash: adminHash,
	}).(*authService)
	return authAdapter, svc
}

func TestAuthService_Authenticate(t *testing.T) {
	_, svc := newTestAuthService("hashed:secret")

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "secret"},
		{name: "empty password", password: "", wantErr: domain.ErrInvalidInput},
		{name: "wrong password", password: "guess", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Authenticate(context.Background(), domain.LoginRequest{Password: tt.password})

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected token to be generated")
			}
			if time.Until(resp.ExpiresAt) < 23*time.Hour {
				t.Errorf("expected 24h expiry, got %v", resp.ExpiresAt)
			}
		})
	}
}

func TestAuthService_Authenticate_AdminDisabled(t *testing.T) {
	_, svc := newTestAuthService("")

	_, err := svc.Authenticate(context.Background(), domain.LoginRequest{Password: "anything"})
	if err != domain.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized without an admin hash, got %v", err)
	}
}

func TestAuthService_Authenticate_GenerateError(t *testing.T) {
	adapter, svc := newTestAuthService("hashed:secret")
	adapter.GenerateErr = errors.New("signing failed")

	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Password: "secret"}); err == nil {
		t.Error("expected signing error to propagate")
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	adapter, svc := newTestAuthService("hashed:secret")

	resp, err := svc.Authenticate(context.Background(), domain.LoginRequest{Password: "secret"})
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	authCtx, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !authCtx.IsAdmin() {
		t.Error("expected admin role")
	}
	if authCtx.Subject != "admin" {
		t.Errorf("expected subject admin, got %s", authCtx.Subject)
	}
	if authCtx.TokenID == "" {
		t.Error("expected token id")
	}

	adapter.Store("expired", domain.TokenClaims{
		Subject:   "admin",
		Role:      domain.RoleAdmin,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty token", token: "", wantErr: domain.ErrTokenInvalid},
		{name: "unknown token", token: "forged", wantErr: domain.ErrTokenInvalid},
		{name: "expired token", token: "expired", wantErr: domain.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tt.token)
			if err != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_ClockAndTTL(t *testing.T) {
	adapter := mocks.NewMockAuthAdapter()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewAuthService(AuthServiceConfig{
		AuthAdapter:       adapter,
		AdminPasswordHash: "hashed:secret",
		TokenTTL:          time.Hour,
		Now:               func() time.Time { return now },
	})

	resp, err := svc.Authenticate(context.Background(), domain.LoginRequest{Password: "secret"})
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if !resp.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry one hour after issue, got %v", resp.ExpiresAt)
	}

	// Two hours later the same token is expired.
	now = now.Add(2 * time.Hour)
	if _, err := svc.ValidateToken(context.Background(), resp.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
