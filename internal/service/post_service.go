package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/meumural/internal/models"
)

const entityPost = "post"

// PostService fronts the tasks posted to groups.
type PostService struct {
	remote RemoteClient
	local  LocalMirror
	opts   options
	nowF   func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(remote RemoteClient, local LocalMirror, opts ...Option) *PostService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PostService{remote: remote, local: local, opts: o, nowF: time.Now}
}

// ListPosts returns the posts of a group, from the mirror when the backend fails.
// It never returns an error; an unknown group yields an empty list.
func (s *PostService) ListPosts(ctx context.Context, groupID int64) ([]models.Post, error) {
	return AttemptRemoteThenFallback(ctx, s.opts.fallback, entityPost, "list",
		func(ctx context.Context) ([]models.Post, error) {
			var posts []models.Post
			if err := s.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/postagem/listarPorGrupo/%d", groupID), nil, &posts); err != nil {
				return nil, err
			}
			if posts == nil {
				posts = []models.Post{}
			}
			return posts, nil
		},
		func(ctx context.Context, _ error) ([]models.Post, error) {
			return s.local.ListPostsForGroup(ctx, groupID), nil
		},
	)
}

// ListPostsByUser returns every post authored by userID. Backend only.
func (s *PostService) ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	var posts []models.Post
	if err := s.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/postagem/listarPorUsuario/%d", userID), nil, &posts); err != nil {
		s.opts.logger().Error("ListPostsByUser failed", "user_id", userID, "error", err)
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// GetPost returns one post by ID. Backend only.
func (s *PostService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	if err := s.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/postagem/listarPorId/%d", id), nil, &p); err != nil {
		s.opts.logger().Error("GetPost failed", "post_id", id, "error", err)
		return nil, err
	}
	return &p, nil
}

// CreatePost creates a post on the backend. When the backend fails the post is appended to
// its group's mirror partition with a local ID and the current time, and returned as if the
// backend had created it.
func (s *PostService) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}

	return AttemptRemoteThenFallback(ctx, s.opts.fallback, entityPost, "create",
		func(ctx context.Context) (*models.Post, error) {
			var p models.Post
			if err := s.remote.Do(ctx, http.MethodPost, "/postagem/criar", in, &p); err != nil {
				return nil, err
			}
			return &p, nil
		},
		func(ctx context.Context, _ error) (*models.Post, error) {
			p := models.Post{
				ID:        s.local.NextID(ctx),
				AuthorID:  in.AuthorID,
				GroupID:   in.GroupID,
				Title:     in.Title,
				Body:      in.Body,
				CreatedAt: s.nowF().UTC().Truncate(time.Millisecond),
			}
			s.local.UpdatePostsForGroup(ctx, in.GroupID, func(posts []models.Post) []models.Post {
				return append(posts, p)
			})
			s.opts.logger().Info("Post created locally", "post_id", p.ID, "group_id", p.GroupID)
			return &p, nil
		},
	)
}

// UpdatePost updates a post on the backend. Failures are returned as-is.
func (s *PostService) UpdatePost(ctx context.Context, id int64, in models.PostInput) (*models.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}

	var p models.Post
	if err := s.remote.Do(ctx, http.MethodPut, fmt.Sprintf("/postagem/atualizar/%d", id), in, &p); err != nil {
		s.opts.logger().Error("UpdatePost failed", "post_id", id, "error", err)
		return nil, err
	}
	s.opts.logger().Info("Post updated", "post_id", p.ID)
	return &p, nil
}

// DeletePost deletes a post on the backend and removes it from its group's mirror partition.
// Under FireAndForget a failed remote delete still resolves successfully.
func (s *PostService) DeletePost(ctx context.Context, groupID, id int64) error {
	remoteErr := s.remote.Do(ctx, http.MethodDelete, fmt.Sprintf("/postagem/apagar/%d", id), nil, nil)

	s.local.UpdatePostsForGroup(ctx, groupID, func(posts []models.Post) []models.Post {
		kept := posts[:0]
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept
	})

	return resolveDelete(s.opts, entityPost, id, remoteErr)
}

func validatePost(in models.PostInput) error {
	if in.GroupID == 0 {
		return fmt.Errorf("post group required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("post title required: %w", ErrInvalidArgument)
	}
	return nil
}
