package ports

import (
	"context"
	"time"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

// LoginInput carries credentials plus the caller address used for throttling.
type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Email    string
	Password string
	RemoteIP string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

// TokenVerifier validates a bearer token and resolves the identity behind it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
