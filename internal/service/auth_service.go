package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/meumural/internal/auth"
	"github.com/mmynk/meumural/internal/models"
)

// Registration defaults expected by the backend.
const (
	DefaultUserStatus = "ativo"
	DefaultUserRole   = "usuario"
)

// Ensure AuthService implements auth.Authenticator
var _ auth.Authenticator = (*AuthService)(nil)

// AuthService is the remote side of the session: sign-in, registration and sign-out.
// It has no offline behavior of its own; the session holder decides what a failure means.
type AuthService struct {
	remote RemoteClient
	creds  *auth.CredentialStore
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(remote RemoteClient, creds *auth.CredentialStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		remote: remote,
		creds:  creds,
		logger: logger,
	}
}

// Login authenticates with the backend and persists the returned token and identity.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	s.logger.Info("Login request", "email", email)

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email required: %w", ErrInvalidArgument)
	}

	var result models.LoginResult
	if err := s.remote.Do(ctx, http.MethodPost, "/usuario/login", models.Credentials{Email: email, Password: password}, &result); err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}
	if result.Token == "" {
		return nil, errors.New("login: backend returned no token")
	}

	// Persistence failures are logged, not returned.
	if err := s.creds.Save(ctx, result.Token, result.User); err != nil {
		s.logger.Error("Failed to persist session", "user_id", result.User.ID, "error", err)
	}

	s.logger.Info("User logged in successfully", "user_id", result.User.ID, "email", result.User.Email)
	return &result, nil
}

// Register creates an account on the backend. It does not sign in.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	s.logger.Info("Register request", "email", reg.Email)

	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" {
		return nil, fmt.Errorf("email required: %w", ErrInvalidArgument)
	}
	if reg.Status == "" {
		reg.Status = DefaultUserStatus
	}
	if reg.Role == "" {
		reg.Role = DefaultUserRole
	}

	var user models.User
	if err := s.remote.Do(ctx, http.MethodPost, "/usuario/criar", reg, &user); err != nil {
		s.logger.Warn("Registration failed", "email", reg.Email, "error", err)
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

// Logout erases the persisted token and identity.
// The backend has no logout endpoint; tokens are discarded client-side.
func (s *AuthService) Logout(ctx context.Context) error {
	s.logger.Info("Logout request")
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
