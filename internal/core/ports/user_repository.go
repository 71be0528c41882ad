package ports

import (
	"context"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

// ListUsersFilter carries paging for the user directory.
type ListUsersFilter struct {
	Role  domain.Role // empty = all roles
	Page  int         // 1-based
	Limit int
}

// UserRepository is the credential store. Lookups return domain.ErrUserNotFound
// when no identity matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// IdentityLookup is the read-only slice of the credential store the token
// verifier needs.
type IdentityLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// IdentityCache lets the user service evict an identity after it changes.
type IdentityCache interface {
	Forget(ctx context.Context, id string) error
}
