package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit.
	MaxPasswordLength = 72

	dummyPassword = "eventhub-timing-equaliser"
)

// AuthService implements registration and login.
type AuthService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	limiter ports.LoginLimiter
	audit   ports.AuditRecorder
	mailer  ports.Mailer
	now     func() time.Time
	log     zerolog.Logger

	// dummyHash is compared against when the email is unknown so both
	// failure paths spend one hash verification.
	dummyHash string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginLimiter throttles logins. Without one, logins are never throttled.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithAuditRecorder sends auth events to r.
func WithAuditRecorder(r ports.AuditRecorder) AuthOption {
	return func(s *AuthService) { s.audit = r }
}

// WithMailer sends a welcome email after registration.
func WithMailer(m ports.Mailer) AuthOption {
	return func(s *AuthService) { s.mailer = m }
}

// WithAuthClock replaces time.Now.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		audit:  noopRecorder{},
		now:    time.Now,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not prepare dummy hash; unknown-email logins will return faster")
	}
	s.dummyHash = dummy
	return s
}

// Register creates a USER identity. Self-registration never grants another role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	user, err := s.createUser(ctx, in.Email, in.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	s.emit(domain.AuthEvent{Type: domain.EventUserRegistered, UserID: user.ID, Email: user.Email, RemoteIP: in.RemoteIP})
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user.Email); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("welcome email not sent")
		}
	}
	return user, nil
}

// EnsureAdmin creates an ADMIN identity for email unless one with that email
// already exists, in which case the existing identity is returned untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	user, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}
	s.emit(domain.AuthEvent{Type: domain.EventUserRegistered, UserID: user.ID, Email: user.Email, Reason: "bootstrap"})
	return user, true, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, throttleKey(email, in.RemoteIP))
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		case !allowed:
			s.emit(domain.AuthEvent{Type: domain.EventLoginThrottled, Email: email, RemoteIP: in.RemoteIP})
			return nil, domain.ErrRateLimited
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.Verify(in.Password, s.dummyHash)
		s.loginFailed(email, in.RemoteIP, "unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.loginFailed(email, in.RemoteIP, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.emit(domain.AuthEvent{Type: domain.EventLoginSucceeded, UserID: user.ID, Email: user.Email, RemoteIP: in.RemoteIP})
	s.log.Debug().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("login succeeded")

	return &ports.LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("%w: password must be %d to %d bytes", domain.ErrInvalidInput, MinPasswordLength, MaxPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.repo.Create(ctx, user)
}

// loginFailed records the failure. The detail is only logged; the audit
// event carries the same generic reason the caller sees.
func (s *AuthService) loginFailed(email, remoteIP, detail string) {
	s.log.Debug().Str("email", email).Str("remote_ip", remoteIP).Str("detail", detail).Msg("login failed")
	s.emit(domain.AuthEvent{
		Type:     domain.EventLoginFailed,
		Email:    email,
		RemoteIP: remoteIP,
		Reason:   domain.ErrInvalidCredentials.Error(),
	})
}

func (s *AuthService) emit(event domain.AuthEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	s.audit.Enqueue(event)
}

func throttleKey(email, remoteIP string) string {
	return strings.ToLower(email) + "|" + remoteIP
}

type noopRecorder struct{}

func (noopRecorder) Enqueue(domain.AuthEvent) {}
