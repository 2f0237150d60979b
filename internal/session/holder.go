// Package session holds the process's authentication state.
//
// A Holder is constructed once at startup, recovers the persisted session with Start,
// and is the only writer of the live session. Consumers read it with Snapshot or
// follow it with Subscribe.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/meumural/internal/auth"
	"github.com/mmynk/meumural/internal/models"
)

// State is the holder's position in the sign-in lifecycle.
type State int

const (
	Loading State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the holder.
// User is nil unless State is Authenticated. Offline marks a locally synthesized session.
type Snapshot struct {
	State   State        `json:"state"`
	User    *models.User `json:"usuario,omitempty"`
	Offline bool         `json:"offline"`
}

// Result reports the identity a sign-in or sign-up produced and whether it was synthesized
// locally because the backend could not be reached or refused the call.
type Result struct {
	User    models.User `json:"usuario"`
	Offline bool        `json:"offline"`
}

// IDSource hands out locally-unique identifiers. *mirror.Mirror implements it.
type IDSource interface {
	NextID(ctx context.Context) int64
}

// Holder owns the live session.
type Holder struct {
	authn  auth.Authenticator
	creds  *auth.CredentialStore
	ids    IDSource
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	stopWatch func()
}

// Option configures a Holder.
type Option func(*Holder)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Holder) { h.logger = logger }
}

// WithClock sets the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(h *Holder) { h.now = now }
}

// New returns a Holder in the Loading state.
func New(authn auth.Authenticator, creds *auth.CredentialStore, ids IDSource, opts ...Option) *Holder {
	h := &Holder{
		authn:  authn,
		creds:  creds,
		ids:    ids,
		logger: slog.Default(),
		now:    time.Now,
		snap:   Snapshot{State: Loading},
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.stopWatch = creds.OnClear(h.invalidate)
	return h
}

// Close stops following credential invalidation. The holder keeps its last state.
func (h *Holder) Close() {
	h.stopWatch()
}

// Snapshot returns the current state.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Subscribe registers fn to be called after every transition and returns a function
// that removes it. fn runs on the goroutine that caused the transition.
func (h *Holder) Subscribe(fn func(Snapshot)) func() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.subsMu.Lock()
			defer h.subsMu.Unlock()
			delete(h.subs, id)
		})
	}
}

// Start recovers the persisted session. It always leaves Loading: any read failure,
// missing identity, offline sentinel or expired token ends in Anonymous.
func (h *Holder) Start(ctx context.Context) Snapshot {
	token, user, err := h.creds.Load(ctx)
	switch {
	case err != nil:
		h.logger.Error("Failed to load persisted session", "error", err)
	case token == "" || user == nil:
		h.logger.Debug("No persisted session")
	case token == auth.OfflineToken:
		h.logger.Info("Persisted session is offline, sign-in required", "user_id", user.ID)
	case auth.TokenExpired(token, h.now()):
		h.logger.Info("Persisted token expired", "user_id", user.ID)
	default:
		h.logger.Info("Session restored", "user_id", user.ID)
		return h.set(Snapshot{State: Authenticated, User: user})
	}
	return h.set(Snapshot{State: Anonymous})
}

// SignIn authenticates with the backend. If the backend fails for any reason, a local
// identity is synthesized from the email, persisted with the offline sentinel token, and
// the holder is authenticated anyway. SignIn never fails; Result.Offline tells the two apart.
func (h *Holder) SignIn(ctx context.Context, email, password string) Result {
	res, err := h.authn.Login(ctx, email, password)
	if err == nil {
		h.set(Snapshot{State: Authenticated, User: &res.User})
		return Result{User: res.User}
	}

	h.logger.Warn("Remote sign-in failed, signing in offline", "email", email, "error", err)
	user := h.offlineUser(ctx, "", email)
	h.set(Snapshot{State: Authenticated, User: &user, Offline: true})
	return Result{User: user, Offline: true}
}

// SignUp registers an account. It never changes state; the caller signs in afterwards.
// If the backend fails, a local identity is persisted with the offline sentinel token
// and returned as an offline result.
func (h *Holder) SignUp(ctx context.Context, name, email, password string) Result {
	user, err := h.authn.Register(ctx, models.Registration{Name: name, Email: email, Password: password})
	if err == nil {
		return Result{User: *user}
	}

	h.logger.Warn("Remote sign-up failed, creating local account", "email", email, "error", err)
	return Result{User: h.offlineUser(ctx, name, email), Offline: true}
}

// SignOut ends the session. Logout failures are logged and do not block the transition.
func (h *Holder) SignOut(ctx context.Context) {
	if err := h.authn.Logout(ctx); err != nil {
		h.logger.Warn("Logout failed", "error", err)
	}
	if err := h.creds.Clear(ctx); err != nil {
		h.logger.Error("Failed to clear session", "error", err)
	}
	h.set(Snapshot{State: Anonymous})
}

// invalidate ends an authenticated session whose credentials were cleared behind the
// holder's back, typically by a 401 from any backend call.
func (h *Holder) invalidate() {
	h.mu.RLock()
	authenticated := h.snap.State == Authenticated
	h.mu.RUnlock()
	if !authenticated {
		return
	}
	h.logger.Warn("Credentials cleared, session ended")
	h.set(Snapshot{State: Anonymous})
}

func (h *Holder) offlineUser(ctx context.Context, name, email string) models.User {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DisplayNameFromEmail(email)
	}
	user := models.User{ID: h.ids.NextID(ctx), Name: name, Email: email}
	if err := h.creds.Save(ctx, auth.OfflineToken, user); err != nil {
		h.logger.Error("Failed to persist local user", "user_id", user.ID, "error", err)
	}
	return user
}

// set stores s and notifies subscribers. Setting the current snapshot again is not a transition.
func (h *Holder) set(s Snapshot) Snapshot {
	h.mu.Lock()
	if h.snap == s {
		h.mu.Unlock()
		return s
	}
	h.snap = s
	h.mu.Unlock()

	h.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subsMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
	h.logger.Debug("Session state changed", "state", s.State, "offline", s.Offline)
	return s
}
