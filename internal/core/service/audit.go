package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// AuditTrail delivers each auth event to every configured sink. A failing
// sink is logged and does not stop delivery to the others.
type AuditTrail struct {
	sinks []ports.AuditSink
	log   zerolog.Logger
}

func NewAuditTrail(log zerolog.Logger, sinks ...ports.AuditSink) *AuditTrail {
	return &AuditTrail{sinks: sinks, log: log.With().Str("component", "audit_trail").Logger()}
}

// Record implements ports.AuditSink.
func (a *AuditTrail) Record(ctx context.Context, event domain.AuthEvent) error {
	var errs []error
	for _, sink := range a.sinks {
		if err := sink.Record(ctx, event); err != nil {
			a.log.Warn().Err(err).Str("type", string(event.Type)).Msg("audit sink failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes auth events to the structured log.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Record(_ context.Context, event domain.AuthEvent) error {
	ev := s.log.Info()
	if event.Type == domain.EventLoginFailed || event.Type == domain.EventLoginThrottled {
		ev = s.log.Warn()
	}
	ev.Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("actor_id", event.ActorID).
		Str("remote_ip", event.RemoteIP).
		Str("reason", event.Reason).
		Time("occurred_at", event.OccurredAt).
		Msg("auth event")
	return nil
}
