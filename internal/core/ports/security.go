package ports

import "github.com/unievents/eventhub-api/internal/core/domain"

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A malformed hash never matches.
	Verify(password, hash string) bool
}

// TokenIssuer mints signed, time-bound tokens.
type TokenIssuer interface {
	Issue(subject, email string, role domain.Role) (domain.IssuedToken, error)
}

// TokenParser checks a token's signature and expiry. It never touches storage.
type TokenParser interface {
	Parse(token string) (*domain.Claims, error)
}
