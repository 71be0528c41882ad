package security

import (
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects how new password hashes are produced.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// HasherOptions configures a PasswordHasher.
type HasherOptions struct {
	Algorithm  Algorithm
	BcryptCost int
	// Argon2Params overrides argon2id.DefaultParams when set.
	Argon2Params *argon2id.Params
}

// PasswordHasher produces salted one-way hashes. Hash uses the configured
// algorithm; Verify recognises either format from the hash prefix, so stored
// hashes keep working after the algorithm is switched.
type PasswordHasher struct {
	algorithm    Algorithm
	bcryptCost   int
	argon2Params *argon2id.Params
}

func NewPasswordHasher(opts HasherOptions) (*PasswordHasher, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = AlgorithmBcrypt
	}
	if alg != AlgorithmBcrypt && alg != AlgorithmArgon2id {
		return nil, fmt.Errorf("unknown password hash algorithm %q", alg)
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	params := opts.Argon2Params
	if params == nil {
		params = argon2id.DefaultParams
	}

	return &PasswordHasher{algorithm: alg, bcryptCost: cost, argon2Params: params}, nil
}

// Hash returns a hash of password with a fresh salt embedded in it.
func (h *PasswordHasher) Hash(password string) (string, error) {
	switch h.algorithm {
	case AlgorithmArgon2id:
		hash, err := argon2id.CreateHash(password, h.argon2Params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return hash, nil
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hash), nil
	}
}

// Verify reports whether password matches hash. Empty or malformed hashes
// return false.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, argon2idPrefix) {
		ok, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
