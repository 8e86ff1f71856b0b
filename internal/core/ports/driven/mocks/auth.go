package mocks

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Ensure MockAuthAdapter implements AuthAdapter
var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

// MockAuthAdapter keeps issued tokens in memory and compares passwords
// against a "hashed:" prefix. Only for tests.
type MockAuthAdapter struct {
	mu     sync.Mutex
	tokens map[string]domain.TokenClaims
	issued int

	GenerateErr error
}

// NewMockAuthAdapter creates a new MockAuthAdapter
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{
		tokens: make(map[string]domain.TokenClaims),
	}
}

func (m *MockAuthAdapter) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (m *MockAuthAdapter) VerifyPassword(password, hash string) bool {
	return hash == "hashed:"+password
}

func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	token := fmt.Sprintf("token-%d", m.issued)
	m.tokens[token] = *claims
	return token, nil
}

func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}

// Store registers a token with arbitrary claims, e.g. an expired one.
func (m *MockAuthAdapter) Store(token string, claims domain.TokenClaims) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = claims
}
