package driving

import (
	"context"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// AuthService guards the administrative endpoints
type AuthService interface {
	// Authenticate checks the admin password and issues a token
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
