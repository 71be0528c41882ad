package domain

import "time"

// Claims is the verified content of a token. Claims are never mutated after issue.
type Claims struct {
	Subject   string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the claims are no longer valid at t.
// The validity window is [IssuedAt, ExpiresAt).
func (c *Claims) ExpiredAt(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}

// IssuedToken is a freshly signed token together with its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Principal is the authenticated identity attached to a single request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// PrincipalFromClaims builds the per-request identity from verified claims.
func PrincipalFromClaims(c *Claims) *Principal {
	return &Principal{ID: c.Subject, Email: c.Email, Role: c.Role}
}
