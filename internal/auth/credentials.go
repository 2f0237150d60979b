// Package auth persists session credentials and defines the remote account contract.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/storage"
)

const (
	// TokenKey holds the persisted credential token.
	TokenKey = "@meumural:token"
	// UserKey holds the persisted identity snapshot.
	UserKey = "@meumural:user"

	// OfflineToken marks a session synthesized locally rather than issued by the backend.
	OfflineToken = "local-token"
)

// CredentialStore persists the session token and identity snapshot.
// It is shared by the transport (which reads and invalidates the token) and the
// auth service (which writes it).
type CredentialStore struct {
	mu    sync.Mutex
	store storage.Store

	hooksMu  sync.Mutex
	hooks    map[int]func()
	nextHook int
}

// NewCredentialStore returns a CredentialStore persisting through store.
func NewCredentialStore(store storage.Store) *CredentialStore {
	return &CredentialStore{store: store, hooks: make(map[int]func())}
}

// OnClear registers fn to run after every Clear, whoever called it, and returns a
// function that removes it. fn runs without any store lock held.
func (c *CredentialStore) OnClear(fn func()) func() {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	id := c.nextHook
	c.nextHook++
	c.hooks[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.hooksMu.Lock()
			defer c.hooksMu.Unlock()
			delete(c.hooks, id)
		})
	}
}

// Token returns the persisted token, or "" when there is none.
func (c *CredentialStore) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, _, err := c.store.Get(ctx, TokenKey)
	return token, err
}

// Load returns the persisted token and identity. Either may be empty.
func (c *CredentialStore) Load(ctx context.Context) (string, *models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, _, err := c.store.Get(ctx, TokenKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read token: %w", err)
	}

	raw, ok, err := c.store.Get(ctx, UserKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read user: %w", err)
	}
	if !ok || raw == "" {
		return token, nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return token, nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return token, &user, nil
}

// Save persists token and user together.
func (c *CredentialStore) Save(ctx context.Context, token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := c.store.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Clear erases the token and the identity snapshot. Both deletes are attempted,
// then the OnClear hooks run.
func (c *CredentialStore) Clear(ctx context.Context) error {
	c.mu.Lock()
	err := errors.Join(
		c.store.Delete(ctx, TokenKey),
		c.store.Delete(ctx, UserKey),
	)
	c.mu.Unlock()

	c.hooksMu.Lock()
	fns := make([]func(), 0, len(c.hooks))
	for _, fn := range c.hooks {
		fns = append(fns, fn)
	}
	c.hooksMu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return err
}
