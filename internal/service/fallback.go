package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/meumural/internal/metrics"
	"github.com/mmynk/meumural/internal/models"
)

var (
	// ErrNotFound is returned when an entity is neither on the backend nor in the mirror.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for missing required fields.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RemoteClient sends one JSON call to the backend. *transport.Client implements it.
type RemoteClient interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// LocalMirror is the local partition store the services fall back to. *mirror.Mirror implements it.
type LocalMirror interface {
	ListGroups(ctx context.Context) []models.Group
	UpdateGroups(ctx context.Context, fn func([]models.Group) []models.Group) []models.Group
	ListPostsForGroup(ctx context.Context, groupID int64) []models.Post
	UpdatePostsForGroup(ctx context.Context, groupID int64, fn func([]models.Post) []models.Post) []models.Post
	DropPostsForGroup(ctx context.Context, groupID int64)
	NextID(ctx context.Context) int64
}

// CodeGenerator draws share codes not in existing. *sharecode.Generator implements it.
type CodeGenerator interface {
	Generate(existing map[string]struct{}) string
}

// DeletePolicy decides what a failed remote delete means to the caller.
type DeletePolicy int

const (
	// FireAndForget resolves deletes successfully whatever the backend answered,
	// so the caller's local removal is never blocked.
	FireAndForget DeletePolicy = iota
	// Strict returns the remote error to the caller.
	Strict
)

func (p DeletePolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "fire-and-forget"
	}
}

// ParseDeletePolicy maps a config value to a DeletePolicy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch s {
	case "", "fire-and-forget":
		return FireAndForget, nil
	case "strict":
		return Strict, nil
	default:
		return FireAndForget, errors.New("unknown delete policy: " + s)
	}
}

// Fallback carries what every fallback needs to report itself.
type Fallback struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// AttemptRemoteThenFallback runs remote and, if it fails, runs fallback with the remote
// error. It is the one place where services decide to leave the network path.
func AttemptRemoteThenFallback[T any](
	ctx context.Context,
	fb Fallback,
	entity, op string,
	remote func(ctx context.Context) (T, error),
	fallback func(ctx context.Context, remoteErr error) (T, error),
) (T, error) {
	out, err := remote(ctx)
	if err == nil {
		return out, nil
	}

	logger := fb.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Remote call failed, using local fallback",
		"entity", entity,
		"op", op,
		"error", err,
	)
	fb.Metrics.IncFallback(entity, op)
	return fallback(ctx, err)
}

// Option configures the entity services.
type Option func(*options)

type options struct {
	fallback        Fallback
	deletePolicy    DeletePolicy
	offlineExamples bool
}

func defaultOptions() options {
	return options{
		fallback:        Fallback{Logger: slog.Default()},
		deletePolicy:    FireAndForget,
		offlineExamples: true,
	}
}

func (o options) logger() *slog.Logger {
	if o.fallback.Logger == nil {
		return slog.Default()
	}
	return o.fallback.Logger
}

// WithMetrics counts fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.fallback.Metrics = m }
}

// WithLogger sets the logger for every log line a service writes, fallback reports included.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.fallback.Logger = logger }
}

// WithDeletePolicy sets how failed remote deletes are reported.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(o *options) { o.deletePolicy = p }
}

// WithOfflineExamples toggles the placeholder groups served when the backend is
// unreachable and nothing is mirrored.
func WithOfflineExamples(enabled bool) Option {
	return func(o *options) { o.offlineExamples = enabled }
}
