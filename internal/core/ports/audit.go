package ports

import (
	"context"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

// AuditSink stores or forwards an auth event.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditRecorder accepts events without blocking the caller.
type AuditRecorder interface {
	Enqueue(event domain.AuthEvent)
}

// Mailer sends transactional email.
type Mailer interface {
	SendWelcome(ctx context.Context, toEmail string) error
}
