package auth

import (
	"context"
	"testing"

	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/storage/memory"
)

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentialStore(memory.New())

	token, user, err := creds.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if token != "" || user != nil {
		t.Errorf("expected nothing persisted, got token=%q user=%+v", token, user)
	}

	want := models.User{ID: 7, Name: "ana", Email: "ana@example.com"}
	if err := creds.Save(ctx, "jwt-token", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	token, user, err = creds.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token != "jwt-token" {
		t.Errorf("token = %q, want jwt-token", token)
	}
	if user == nil || *user != want {
		t.Errorf("user = %+v, want %+v", user, want)
	}

	if tok, _ := creds.Token(ctx); tok != "jwt-token" {
		t.Errorf("Token() = %q, want jwt-token", tok)
	}

	if err := creds.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	token, user, _ = creds.Load(ctx)
	if token != "" || user != nil {
		t.Errorf("expected cleared credentials, got token=%q user=%+v", token, user)
	}
}

func TestCredentialStore_OnClear(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentialStore(memory.New())

	calls := 0
	remove := creds.OnClear(func() {
		calls++
		// Hooks run unlocked, so they may read the store.
		if tok, _ := creds.Token(ctx); tok != "" {
			t.Errorf("hook saw token %q, want cleared", tok)
		}
	})

	creds.Save(ctx, "jwt-token", models.User{ID: 1})
	creds.Clear(ctx)
	creds.Clear(ctx)
	if calls != 2 {
		t.Errorf("hook ran %d times, want 2", calls)
	}

	remove()
	remove()
	creds.Clear(ctx)
	if calls != 2 {
		t.Errorf("hook ran after removal, calls = %d", calls)
	}
}
