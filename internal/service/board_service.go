package service

import (
	"context"

	"github.com/mmynk/meumural/internal/models"
)

// GroupSummary is a group with its tasks, as shown on the board.
type GroupSummary struct {
	models.Group
	PostCount int           `json:"quantidadePostagens"`
	Posts     []models.Post `json:"postagens"`
}

// BoardService composes groups and posts into the board overview.
type BoardService struct {
	groups *GroupService
	posts  *PostService
}

// NewBoardService creates a new BoardService.
func NewBoardService(groups *GroupService, posts *PostService) *BoardService {
	return &BoardService{groups: groups, posts: posts}
}

// Overview lists every group with its posts. A group whose posts cannot be loaded is
// reported with no posts rather than failing the whole overview.
func (s *BoardService) Overview(ctx context.Context) ([]GroupSummary, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		posts, err := s.posts.ListPosts(ctx, g.ID)
		if err != nil {
			s.groups.opts.logger().Warn("Overview: failed to load posts", "group_id", g.ID, "error", err)
			posts = []models.Post{}
		}
		out = append(out, GroupSummary{Group: g, PostCount: len(posts), Posts: posts})
	}

	s.groups.opts.logger().Debug("Overview built", "groups_count", len(out))
	return out, nil
}
