package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/shared"
)

// ErrAccountPending is returned when a portal customer has not been approved yet.
var ErrAccountPending = fmt.Errorf("account awaiting approval: %w", httpx.ErrForbidden)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.Role == shared.RoleCustomer && user.CustomerStatus != "approved" {
		return nil, ErrAccountPending
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Name:      user.Name,
		Role:      string(user.Role),
	}, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Parse(ctx, raw)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}
