package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

func TestAuthService_Register_Success(t *testing.T) {
	mailer := &stubMailer{}
	f := newAuthFixture(t, WithMailer(mailer))

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "  alice@example.com ", Password: "pass1234"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected an ID to be assigned")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected trimmed email, got %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role USER, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "alice@example.com" {
		t.Fatalf("expected one welcome email, got %v", mailer.sent)
	}
	if got := f.recorder.types(); len(got) != 1 || got[0] != domain.EventUserRegistered {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestAuthService_Register_MailFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture(t, WithMailer(&stubMailer{err: errors.New("smtp down")}))

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "a@example.com", Password: "pass1234"}); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	cases := []ports.RegisterInput{
		{Email: "", Password: "pass1234"},
		{Email: "not-an-email", Password: "pass1234"},
		{Email: "a@example.com", Password: "short"},
		{Email: "a@example.com", Password: strings.Repeat("x", MaxPasswordLength+1)},
	}
	for _, in := range cases {
		if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	f.register(t, "bob@example.com", "pass1234")
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "bob@example.com", Password: "pass5678"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Scenario(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t, "u@x.com", "secret123")

	res, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "u@x.com", Password: "secret123", RemoteIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.User == nil || res.User.ID != registered.ID {
		t.Fatalf("unexpected login result: %+v", res)
	}

	claims, err := f.tokens.Parse(res.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != registered.ID || claims.Role != domain.RoleUser || claims.Email != "u@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(res.ExpiresAt) {
		t.Fatalf("expiry mismatch: %v vs %v", claims.ExpiresAt, res.ExpiresAt)
	}

	_, wrongPassword := f.svc.Login(context.Background(), ports.LoginInput{Email: "u@x.com", Password: "wrong"})
	_, unknownEmail := f.svc.Login(context.Background(), ports.LoginInput{Email: "nobody@x.com", Password: "secret123"})
	if wrongPassword != domain.ErrInvalidCredentials || unknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("expected identical ErrInvalidCredentials, got %v / %v", wrongPassword, unknownEmail)
	}

	want := []domain.AuthEventType{
		domain.EventUserRegistered,
		domain.EventLoginSucceeded,
		domain.EventLoginFailed,
		domain.EventLoginFailed,
	}
	got := f.recorder.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
	for _, e := range f.recorder.events[2:] {
		if e.Reason != domain.ErrInvalidCredentials.Error() {
			t.Fatalf("failed login events must not reveal the cause, got %q", e.Reason)
		}
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	f := newAuthFixture(t)

	for _, in := range []ports.LoginInput{{}, {Email: "u@x.com"}, {Password: "secret123"}} {
		if _, err := f.svc.Login(context.Background(), in); err != domain.ErrInvalidCredentials {
			t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", in, err)
		}
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	f := newAuthFixture(t, WithLoginLimiter(limiter))
	f.register(t, "u@x.com", "secret123")
	hitsBefore := f.repo.findHits

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "U@x.com", Password: "secret123", RemoteIP: "10.0.0.1"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if f.repo.findHits != hitsBefore {
		t.Fatalf("throttled login must not reach the store")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "u@x.com|10.0.0.1" {
		t.Fatalf("unexpected limiter key: %v", limiter.keys)
	}
	if got := f.recorder.types(); got[len(got)-1] != domain.EventLoginThrottled {
		t.Fatalf("expected throttled event, got %v", got)
	}
}

func TestAuthService_Login_LimiterErrorAllows(t *testing.T) {
	f := newAuthFixture(t, WithLoginLimiter(&stubLimiter{err: errors.New("redis down")}))
	f.register(t, "u@x.com", "secret123")

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "u@x.com", Password: "secret123"}); err != nil {
		t.Fatalf("expected login to proceed when limiter fails, got %v", err)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("connection refused")
	f.repo.findErr = boom

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "u@x.com", Password: "secret123"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("store failure must not look like bad credentials")
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)

	admin, created, err := f.svc.EnsureAdmin(context.Background(), "root@x.com", "adminpass")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got created=%v err=%v", created, err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", admin.Role)
	}

	again, created, err := f.svc.EnsureAdmin(context.Background(), "root@x.com", "other-password")
	if err != nil || created {
		t.Fatalf("expected existing admin to be kept, got created=%v err=%v", created, err)
	}
	if again.ID != admin.ID {
		t.Fatalf("expected same identity, got %s and %s", admin.ID, again.ID)
	}
}
