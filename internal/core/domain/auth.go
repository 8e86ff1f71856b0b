package domain

import "time"

// Role represents a caller's role
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// TokenClaims represents the claims stored in a JWT token
type TokenClaims struct {
	ID        string `json:"jti"`
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthContext is attached to authenticated requests
type AuthContext struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
	TokenID string `json:"token_id"`
}

// IsAdmin returns true if the caller has admin role
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// LoginRequest exchanges the admin password for a token
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
