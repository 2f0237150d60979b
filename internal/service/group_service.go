package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmynk/meumural/internal/models"
)

const entityGroup = "group"

// GroupService fronts groups: backend first, local mirror when the backend fails.
type GroupService struct {
	remote RemoteClient
	local  LocalMirror
	codes  CodeGenerator
	opts   options
}

// NewGroupService creates a new GroupService.
func NewGroupService(remote RemoteClient, local LocalMirror, codes CodeGenerator, opts ...Option) *GroupService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GroupService{remote: remote, local: local, codes: codes, opts: o}
}

// exampleGroups are served when the backend is unreachable and nothing is mirrored,
// so the board is navigable on first launch without connectivity. They are never persisted.
func exampleGroups() []models.Group {
	return []models.Group{
		{ID: 1, Name: "Equipe Projeto A", Description: "Grupo de trabalho do Projeto A", ShareCode: "0001"},
		{ID: 2, Name: "Estudo React Native", Description: "Compartilhar materiais e dúvidas", ShareCode: "0002"},
		{ID: 3, Name: "Time Comercial", Description: "Planejamento e metas", ShareCode: "0003"},
	}
}

// ListGroups returns the backend's groups, or the mirrored ones when the backend fails.
// It never returns an error.
func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return AttemptRemoteThenFallback(ctx, s.opts.fallback, entityGroup, "list",
		func(ctx context.Context) ([]models.Group, error) {
			var groups []models.Group
			if err := s.remote.Do(ctx, http.MethodGet, "/grupo/listar", nil, &groups); err != nil {
				return nil, err
			}
			if groups == nil {
				groups = []models.Group{}
			}
			return groups, nil
		},
		func(ctx context.Context, _ error) ([]models.Group, error) {
			local := s.local.ListGroups(ctx)
			if len(local) == 0 && s.opts.offlineExamples {
				return exampleGroups(), nil
			}
			return local, nil
		},
	)
}

// GetGroup returns one group by ID, looking in the mirror when the backend fails.
func (s *GroupService) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	return AttemptRemoteThenFallback(ctx, s.opts.fallback, entityGroup, "get",
		func(ctx context.Context) (*models.Group, error) {
			var g models.Group
			if err := s.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/grupo/listarPorId/%d", id), nil, &g); err != nil {
				return nil, err
			}
			return &g, nil
		},
		func(ctx context.Context, remoteErr error) (*models.Group, error) {
			for _, g := range s.local.ListGroups(ctx) {
				if g.ID == id {
					return &g, nil
				}
			}
			return nil, fmt.Errorf("group %d: %w (remote: %v)", id, ErrNotFound, remoteErr)
		},
	)
}

// CreateGroup creates a group on the backend. When the backend fails, the group is created
// in the mirror with a local ID and a share code unique among mirrored groups, and returned
// as if the backend had created it.
func (s *GroupService) CreateGroup(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("group name required: %w", ErrInvalidArgument)
	}

	return AttemptRemoteThenFallback(ctx, s.opts.fallback, entityGroup, "create",
		func(ctx context.Context) (*models.Group, error) {
			var g models.Group
			if err := s.remote.Do(ctx, http.MethodPost, "/grupo/criar", in, &g); err != nil {
				return nil, err
			}
			if g.ShareCode == "" {
				g.ShareCode = s.codes.Generate(shareCodes(s.local.ListGroups(ctx)))
				s.opts.logger().Info("Backend omitted share code, generated one", "group_id", g.ID, "code", g.ShareCode)
			}
			return &g, nil
		},
		func(ctx context.Context, _ error) (*models.Group, error) {
			g := models.Group{
				ID:          s.local.NextID(ctx),
				Name:        in.Name,
				Description: in.Description,
			}
			s.local.UpdateGroups(ctx, func(groups []models.Group) []models.Group {
				g.ShareCode = s.codes.Generate(shareCodes(groups))
				return append(groups, g)
			})
			s.opts.logger().Info("Group created locally", "group_id", g.ID, "code", g.ShareCode)
			return &g, nil
		},
	)
}

// UpdateGroup updates a group on the backend. There is no local fallback: failures
// are returned as-is.
func (s *GroupService) UpdateGroup(ctx context.Context, id int64, in models.GroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("group name required: %w", ErrInvalidArgument)
	}

	var g models.Group
	if err := s.remote.Do(ctx, http.MethodPut, fmt.Sprintf("/grupo/atualizar/%d", id), in, &g); err != nil {
		s.opts.logger().Error("UpdateGroup failed", "group_id", id, "error", err)
		return nil, err
	}
	s.opts.logger().Info("Group updated", "group_id", g.ID)
	return &g, nil
}

// DeleteGroup deletes a group on the backend and removes it, with its posts, from the mirror.
// Under FireAndForget a failed remote delete still resolves successfully.
// Mirror entries are matched by ID only; a share code that happens to spell id is not a match.
func (s *GroupService) DeleteGroup(ctx context.Context, id int64) error {
	remoteErr := s.remote.Do(ctx, http.MethodDelete, fmt.Sprintf("/grupo/apagar/%d", id), nil, nil)

	s.local.UpdateGroups(ctx, func(groups []models.Group) []models.Group {
		kept := groups[:0]
		for _, g := range groups {
			if g.ID != id {
				kept = append(kept, g)
			}
		}
		return kept
	})
	s.local.DropPostsForGroup(ctx, id)

	return resolveDelete(s.opts, entityGroup, id, remoteErr)
}

func resolveDelete(o options, entity string, id int64, remoteErr error) error {
	if remoteErr == nil {
		o.logger().Info("Deleted on backend", "entity", entity, "id", id)
		return nil
	}
	if o.deletePolicy == Strict {
		return remoteErr
	}
	o.logger().Warn("Remote delete failed, resolving anyway",
		"entity", entity,
		"id", id,
		"policy", o.deletePolicy,
		"error", remoteErr,
	)
	o.fallback.Metrics.IncFallback(entity, "delete")
	return nil
}

func shareCodes(groups []models.Group) map[string]struct{} {
	codes := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.ShareCode != "" {
			codes[g.ShareCode] = struct{}{}
		}
	}
	return codes
}
