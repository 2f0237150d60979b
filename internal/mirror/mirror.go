// Package mirror keeps the local copy of groups and posts used when the backend is unreachable.
//
// Each partition (all groups, or the posts of one group) is stored as one JSON array under a
// fixed key. Callers read a whole partition, change it in memory and write it back; a mutex per
// partition key keeps those read-modify-write cycles from losing updates.
//
// The mirror never reports persistence failures. They are logged and treated as an empty
// partition on read and as a no-op on write.
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/storage"
)

const (
	// GroupsKey holds the locally known groups.
	GroupsKey = "@meumural:grupos"

	postsKeyPrefix = "@meumural:postagens:grupo:"

	// sequenceKey holds the last locally issued ID.
	sequenceKey = "@meumural:seq"
)

// PostsKey returns the key of the post partition for groupID.
func PostsKey(groupID int64) string {
	return postsKeyPrefix + strconv.FormatInt(groupID, 10)
}

// Mirror is the local mirror store.
type Mirror struct {
	store  storage.Store
	logger *slog.Logger
	nowF   func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// lastID is the highest ID issued by this process; it keeps NextID monotonic
	// even when the persisted sequence cannot be written.
	lastID int64
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) { m.logger = logger }
}

// WithClock replaces the wall clock used to seed IDs.
func WithClock(now func() time.Time) Option {
	return func(m *Mirror) { m.nowF = now }
}

// New returns a Mirror persisting through store.
func New(store storage.Store, opts ...Option) *Mirror {
	m := &Mirror{
		store:  store,
		logger: slog.Default(),
		nowF:   time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListGroups returns every locally known group, in insertion order.
func (m *Mirror) ListGroups(ctx context.Context) []models.Group {
	unlock := m.lock(GroupsKey)
	defer unlock()
	return readList[models.Group](ctx, m, GroupsKey)
}

// SaveGroups replaces the group partition.
func (m *Mirror) SaveGroups(ctx context.Context, groups []models.Group) {
	unlock := m.lock(GroupsKey)
	defer unlock()
	writeList(ctx, m, GroupsKey, groups)
}

// UpdateGroups applies fn to the group partition and writes the result back,
// holding the partition lock for the whole cycle. It returns what was written.
func (m *Mirror) UpdateGroups(ctx context.Context, fn func([]models.Group) []models.Group) []models.Group {
	unlock := m.lock(GroupsKey)
	defer unlock()
	groups := fn(readList[models.Group](ctx, m, GroupsKey))
	writeList(ctx, m, GroupsKey, groups)
	return groups
}

// ListPostsForGroup returns the mirrored posts of groupID, in insertion order.
func (m *Mirror) ListPostsForGroup(ctx context.Context, groupID int64) []models.Post {
	key := PostsKey(groupID)
	unlock := m.lock(key)
	defer unlock()
	return readList[models.Post](ctx, m, key)
}

// SavePostsForGroup replaces the post partition of groupID.
func (m *Mirror) SavePostsForGroup(ctx context.Context, groupID int64, posts []models.Post) {
	key := PostsKey(groupID)
	unlock := m.lock(key)
	defer unlock()
	writeList(ctx, m, key, posts)
}

// UpdatePostsForGroup is the post partition counterpart of UpdateGroups.
func (m *Mirror) UpdatePostsForGroup(ctx context.Context, groupID int64, fn func([]models.Post) []models.Post) []models.Post {
	key := PostsKey(groupID)
	unlock := m.lock(key)
	defer unlock()
	posts := fn(readList[models.Post](ctx, m, key))
	writeList(ctx, m, key, posts)
	return posts
}

// DropPostsForGroup removes the post partition of groupID.
func (m *Mirror) DropPostsForGroup(ctx context.Context, groupID int64) {
	key := PostsKey(groupID)
	unlock := m.lock(key)
	defer unlock()
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Error("mirror: failed to drop partition", "key", key, "error", err)
	}
}

// NextID issues a locally unique identifier: max(now in milliseconds, last issued + 1).
// The last issued value is persisted, so IDs keep increasing across restarts and
// survive clock rollback.
func (m *Mirror) NextID(ctx context.Context) int64 {
	unlock := m.lock(sequenceKey)
	defer unlock()

	last := m.lastID
	raw, ok, err := m.store.Get(ctx, sequenceKey)
	if err != nil {
		m.logger.Error("mirror: failed to read id sequence", "error", err)
	} else if ok {
		if persisted, err := strconv.ParseInt(raw, 10, 64); err == nil && persisted > last {
			last = persisted
		}
	}

	next := m.nowF().UnixMilli()
	if next <= last {
		next = last + 1
	}
	m.lastID = next

	if err := m.store.Set(ctx, sequenceKey, strconv.FormatInt(next, 10)); err != nil {
		m.logger.Error("mirror: failed to persist id sequence", "error", err)
	}
	return next
}

func (m *Mirror) lock(key string) func() {
	m.locksMu.Lock()
	mu, ok := m.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[key] = mu
	}
	m.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func readList[T any](ctx context.Context, m *Mirror, key string) []T {
	out := []T{}
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Error("mirror: failed to read partition", "key", key, "error", err)
		return out
	}
	if !ok || raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		m.logger.Error("mirror: corrupt partition", "key", key, "error", err)
		return []T{}
	}
	return out
}

func writeList[T any](ctx context.Context, m *Mirror, key string, items []T) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		m.logger.Error("mirror: failed to encode partition", "key", key, "error", err)
		return
	}
	if err := m.store.Set(ctx, key, string(raw)); err != nil {
		m.logger.Error("mirror: failed to write partition", "key", key, "error", err)
	}
}
