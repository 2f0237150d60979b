package auth

import (
	"context"

	"github.com/mmynk/meumural/internal/models"
)

// Authenticator defines the remote account operations the session holder composes.
// This abstraction allows the holder to be tested against fakes and lets the backend
// contract change without touching session state handling.
type Authenticator interface {
	// Login verifies the credentials with the backend and persists the returned
	// token and identity on success.
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)

	// Register creates an account. It never signs the user in.
	Register(ctx context.Context, reg models.Registration) (*models.User, error)

	// Logout ends the session and erases the persisted token and identity.
	Logout(ctx context.Context) error
}
