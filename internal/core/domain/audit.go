package domain

import (
	"strings"
	"time"
)

// AuthEventType names an entry of the authentication audit trail.
type AuthEventType string

const (
	EventLoginSucceeded  AuthEventType = "login.succeeded"
	EventLoginFailed     AuthEventType = "login.failed"
	EventLoginThrottled  AuthEventType = "login.throttled"
	EventUserRegistered  AuthEventType = "user.registered"
	EventUserRoleChanged AuthEventType = "user.role_changed"
	EventUserDeleted     AuthEventType = "user.deleted"
)

// AuthEvent records something that happened to an identity.
type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id,omitempty"`
	Email      string        `json:"email,omitempty"`
	ActorID    string        `json:"actor_id,omitempty"`
	RemoteIP   string        `json:"remote_ip,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Key returns the value events are sharded on, so events for one identity
// stay ordered. Every event about an existing identity carries its email;
// UserID is the fallback.
func (e AuthEvent) Key() string {
	if e.Email != "" {
		return strings.ToLower(e.Email)
	}
	return e.UserID
}
