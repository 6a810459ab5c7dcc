package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pureline/storefront-api/internal/api/metrics"
	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

// AuthService implements signup and login.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Signup registers a USER account together with its empty cart and returns a
// token for it.
func (s *AuthService) Signup(ctx context.Context, email, name, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domain.Invalid("Email and password are required")
	}
	if len(password) > MaxPasswordBytes {
		return "", domain.Invalid(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return "", domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Password:  hash,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateWithCart(ctx, user); err != nil {
		return "", err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	return s.tokens.Issue(user)
}

// Login checks credentials and returns a fresh token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.Password) {
		return "", domain.ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}
