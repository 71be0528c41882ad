package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// maxPage keeps (page-1)*limit far from integer overflow.
	maxPage         = 100_000
)

// UserService administers identities on behalf of an acting principal.
type UserService struct {
	repo   ports.UserRepository
	cache  ports.IdentityCache
	audit  ports.AuditRecorder
	now    func() time.Time
	logger zerolog.Logger
}

// NewUserService returns a UserService. cache and audit may be nil.
func NewUserService(repo ports.UserRepository, cache ports.IdentityCache, audit ports.AuditRecorder, logger zerolog.Logger) *UserService {
	if audit == nil {
		audit = noopRecorder{}
	}
	return &UserService{
		repo:   repo,
		cache:  cache,
		audit:  audit,
		now:    time.Now,
		logger: logger.With().Str("component", "user_service").Logger(),
	}
}

// List returns one page of identities, optionally filtered by role.
func (s *UserService) List(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	filter := ports.ListUsersFilter{Page: in.Page, Limit: in.Limit}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxPage {
		filter.Page = maxPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if in.Role != "" {
		role, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// ChangeRole sets the role of identity id. Tokens already issued keep their
// role until they expire.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if actor.ID == id {
		return nil, fmt.Errorf("%w: cannot change your own role", domain.ErrInvalidInput)
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.forget(ctx, id)

	s.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventUserRoleChanged,
		UserID:     user.ID,
		Email:      user.Email,
		ActorID:    actor.ID,
		Reason:     "role=" + role.String(),
		OccurredAt: s.now().UTC(),
	})
	s.logger.Info().Str("user_id", id).Str("role", role.String()).Str("actor_id", actor.ID).Msg("role changed")
	return user, nil
}

// Delete removes identity id. Tokens issued to it stop verifying.
func (s *UserService) Delete(ctx context.Context, actor *domain.Principal, id string) error {
	if actor == nil {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete yourself", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id)

	s.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventUserDeleted,
		UserID:     id,
		Email:      user.Email,
		ActorID:    actor.ID,
		OccurredAt: s.now().UTC(),
	})
	s.logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

func (s *UserService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Forget(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("identity cache eviction failed")
	}
}
