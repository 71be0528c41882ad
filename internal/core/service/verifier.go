package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// Verifier turns a bearer token into a Principal. A token only verifies while
// its signature is intact, it is unexpired and its subject still exists.
type Verifier struct {
	parser     ports.TokenParser
	identities ports.IdentityLookup
	log        zerolog.Logger
}

func NewVerifier(parser ports.TokenParser, identities ports.IdentityLookup, log zerolog.Logger) *Verifier {
	return &Verifier{
		parser:     parser,
		identities: identities,
		log:        log.With().Str("component", "token_verifier").Logger(),
	}
}

// Verify returns the principal for token. The role is taken from the token;
// a role change applies from the next login.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := v.parser.Parse(token)
	if err != nil {
		return nil, err
	}

	if _, err := v.identities.FindByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject %s", domain.ErrIdentityNotFound, claims.Subject)
		}
		v.log.Error().Err(err).Str("subject", claims.Subject).Msg("identity lookup failed")
		return nil, fmt.Errorf("verify token: %w", err)
	}

	return domain.PrincipalFromClaims(claims), nil
}
