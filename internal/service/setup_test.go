package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/meumural/internal/auth"
	"github.com/mmynk/meumural/internal/backendtest"
	"github.com/mmynk/meumural/internal/metrics"
	"github.com/mmynk/meumural/internal/mirror"
	"github.com/mmynk/meumural/internal/sharecode"
	"github.com/mmynk/meumural/internal/storage/sqlite"
	"github.com/mmynk/meumural/internal/transport"
)

// testEnv wires the services against a fake backend and a temp SQLite mirror.
type testEnv struct {
	backend *backendtest.Server
	creds   *auth.CredentialStore
	mirror  *mirror.Mirror
	metrics *metrics.Metrics
	client  *transport.Client
	groups  *GroupService
	posts   *PostService
	auth    *AuthService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestEnv creates a fake backend, a temp SQLite store and services wired to both.
func setupTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	backend := backendtest.New(t)
	creds := auth.NewCredentialStore(store)
	m := metrics.New(prometheus.NewRegistry())
	client := transport.NewAuthenticated(backend.URL, creds, transport.WithMetrics(m), transport.WithLogger(quietLogger()))
	local := mirror.New(store, mirror.WithLogger(quietLogger()))

	opts = append([]Option{WithMetrics(m), WithLogger(quietLogger())}, opts...)
	return &testEnv{
		backend: backend,
		creds:   creds,
		mirror:  local,
		metrics: m,
		client:  client,
		groups:  NewGroupService(client, local, sharecode.New(), opts...),
		posts:   NewPostService(client, local, opts...),
		auth:    NewAuthService(client, creds, quietLogger()),
	}
}

// offlineRemote fails every call the way an unreachable backend does.
type offlineRemote struct{}

func (offlineRemote) Do(ctx context.Context, method, path string, body, out any) error {
	return &transport.Error{Method: method, Path: path, Kind: transport.ErrNetwork, Err: context.DeadlineExceeded}
}

// recordingCodes wraps a generator and records the size of each set it was given.
type recordingCodes struct {
	inner CodeGenerator
	sizes []int
}

func (r *recordingCodes) Generate(existing map[string]struct{}) string {
	r.sizes = append(r.sizes, len(existing))
	return r.inner.Generate(existing)
}
