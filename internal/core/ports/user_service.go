package ports

import (
	"context"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

// ListUsersInput carries the query for the user directory.
type ListUsersInput struct {
	Role  string
	Page  int
	Limit int
}

// ListUsersResult is one page of the user directory.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService administers identities. The acting principal is passed explicitly.
type UserService interface {
	List(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
	ChangeRole(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.Principal, id string) error
}
