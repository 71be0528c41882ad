// Package access holds the per-request access decision: authenticate first,
// then, only when the operation declares required roles, authorize.
package access

import "github.com/unievents/eventhub-api/internal/core/domain"

// Decision is the terminal state of the access guard for one request.
type Decision int

const (
	// Unauthenticated covers a missing token and every verification failure.
	Unauthenticated Decision = iota
	// Forbidden means the identity is authenticated but its role is not allowed.
	Forbidden
	// Authorized means the request may proceed to the operation.
	Authorized
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// RoleSet is the set of roles an operation accepts. The zero value declares no
// restriction.
type RoleSet struct {
	user, organizer, admin bool
}

// Roles builds a RoleSet. Unknown roles are ignored.
func Roles(roles ...domain.Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		switch r {
		case domain.RoleUser:
			s.user = true
		case domain.RoleOrganizer:
			s.organizer = true
		case domain.RoleAdmin:
			s.admin = true
		}
	}
	return s
}

// Empty reports whether no role restriction is declared.
func (s RoleSet) Empty() bool {
	return !s.user && !s.organizer && !s.admin
}

// Has reports whether r belongs to the set.
func (s RoleSet) Has(r domain.Role) bool {
	switch r {
	case domain.RoleUser:
		return s.user
	case domain.RoleOrganizer:
		return s.organizer
	case domain.RoleAdmin:
		return s.admin
	default:
		return false
	}
}

// Decide runs the guard state machine. principal is the result of a successful
// verification; verifyErr is non-nil when no token was presented or the token
// was rejected.
func Decide(principal *domain.Principal, verifyErr error, required RoleSet) Decision {
	if verifyErr != nil || principal == nil {
		return Unauthenticated
	}
	if !principal.Role.Valid() {
		return Unauthenticated
	}
	if required.Empty() {
		return Authorized
	}
	if required.Has(principal.Role) {
		return Authorized
	}
	return Forbidden
}
