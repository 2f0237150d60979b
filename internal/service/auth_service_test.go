package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/meumural/internal/backendtest"
	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/transport"
)

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := env.backend.AddUser("Ana", "ana@example.com", "segredo")

	result, err := env.auth.Login(ctx, "ana@example.com", "segredo")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token != backendtest.TokenFor(user) {
		t.Errorf("token = %q, want %q", result.Token, backendtest.TokenFor(user))
	}

	token, stored, err := env.creds.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if token != result.Token || stored == nil || stored.ID != user.ID {
		t.Errorf("persisted session = (%q, %+v), want (%q, %+v)", token, stored, result.Token, user)
	}

	// Later calls carry the token.
	env.groups.ListGroups(ctx)
	if h := env.backend.LastAuthHeader(); h != "Bearer "+result.Token {
		t.Errorf("Authorization = %q, want bearer token", h)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.backend.AddUser("Ana", "ana@example.com", "segredo")

	_, err := env.auth.Login(ctx, "ana@example.com", "errada")
	if !transport.IsUnauthorized(err) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
	if token, _ := env.creds.Token(ctx); token != "" {
		t.Errorf("failed login persisted token %q", token)
	}
}

func TestLogin_EmptyEmail(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.auth.Login(context.Background(), " ", "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, models.Registration{Name: "Bia", Email: "bia@example.com", Password: "123456"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == 0 || user.Name != "Bia" {
		t.Errorf("unexpected user %+v", user)
	}
	if token, _ := env.creds.Token(ctx); token != "" {
		t.Error("Register must not sign in")
	}

	_, err = env.auth.Register(ctx, models.Registration{Name: "Bia", Email: "bia@example.com", Password: "x"})
	if transport.StatusCode(err) != 409 {
		t.Errorf("expected 409 on duplicate email, got %v", err)
	}

	if _, err := env.auth.Login(ctx, "bia@example.com", "123456"); err != nil {
		t.Errorf("Login after Register failed: %v", err)
	}
}

type capturingRemote struct {
	body any
}

func (c *capturingRemote) Do(ctx context.Context, method, path string, body, out any) error {
	c.body = body
	return nil
}

func TestRegister_Defaults(t *testing.T) {
	env := setupTestEnv(t)
	remote := &capturingRemote{}
	svc := NewAuthService(remote, env.creds, quietLogger())

	if _, err := svc.Register(context.Background(), models.Registration{Name: "C", Email: "c@example.com", Password: "p"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	reg, ok := remote.body.(models.Registration)
	if !ok {
		t.Fatalf("body type = %T, want models.Registration", remote.body)
	}
	if reg.Status != DefaultUserStatus || reg.Role != DefaultUserRole {
		t.Errorf("defaults = (%q, %q), want (%q, %q)", reg.Status, reg.Role, DefaultUserStatus, DefaultUserRole)
	}
}

func TestLogout(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.backend.AddUser("Ana", "ana@example.com", "segredo")
	if _, err := env.auth.Login(ctx, "ana@example.com", "segredo"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.auth.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	token, user, err := env.creds.Load(ctx)
	if err != nil || token != "" || user != nil {
		t.Errorf("after logout Load = (%q, %+v, %v), want empty", token, user, err)
	}
}
