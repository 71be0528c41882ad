package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrRateLimited        = errors.New("too many login attempts")
	ErrForbidden          = errors.New("forbidden")
)

// Token rejection reasons. They are kept distinct for logs and metrics; at the
// HTTP boundary every one of them is reported as "unauthenticated".
var (
	ErrTokenMissing          = errors.New("token missing")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrIdentityNotFound      = errors.New("token identity no longer exists")
)

// IsAuthenticationError reports whether err is one of the token rejection reasons.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrTokenMissing) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignatureInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrIdentityNotFound)
}

// RejectionReason returns a short, stable label for a token rejection, used as a
// metric label and log field.
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenMissing):
		return "missing"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity_not_found"
	default:
		return "error"
	}
}
