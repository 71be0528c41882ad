package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/api/metrics"
	"github.com/unievents/eventhub-api/internal/core/access"
	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// Guard authenticates bearer tokens and enforces per-route role requirements.
type Guard struct {
	verifier ports.TokenVerifier
	log      zerolog.Logger
}

func NewGuard(verifier ports.TokenVerifier, log zerolog.Logger) *Guard {
	return &Guard{verifier: verifier, log: log.With().Str("component", "access_guard").Logger()}
}

// Authenticated admits any request carrying a valid token.
func (g *Guard) Authenticated() echo.MiddlewareFunc {
	return g.RequireRoles()
}

// RequireRoles admits requests whose principal holds one of roles. With no
// roles it only requires authentication. An unknown role panics at route setup.
func (g *Guard) RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	for _, r := range roles {
		if !r.Valid() {
			panic("middleware: unknown role " + string(r))
		}
	}
	required := access.Roles(roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := g.authenticate(c)
			decision := access.Decide(principal, err, required)
			metrics.AccessDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case access.Authorized:
				SetPrincipal(c, principal)
				return next(c)
			case access.Forbidden:
				g.log.Debug().
					Str("user_id", principal.ID).
					Str("role", principal.Role.String()).
					Str("path", c.Path()).
					Msg("access forbidden")
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}
		}
	}
}

func (g *Guard) authenticate(c echo.Context) (*domain.Principal, error) {
	token, err := bearerToken(c.Request())
	if err == nil {
		start := time.Now()
		var p *domain.Principal
		p, err = g.verifier.Verify(c.Request().Context(), token)
		metrics.TokenVerifyDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.TokenVerificationsTotal.WithLabelValues(domain.RejectionReason(nil)).Inc()
			return p, nil
		}
	}

	reason := domain.RejectionReason(err)
	metrics.TokenVerificationsTotal.WithLabelValues(reason).Inc()
	g.log.Debug().Str("reason", reason).Str("path", c.Path()).Msg("request not authenticated")
	return nil, err
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", domain.ErrTokenMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", domain.ErrTokenMalformed
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrTokenMissing
	}
	return token, nil
}
