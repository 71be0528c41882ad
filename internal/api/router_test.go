package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/unievents/eventhub-api/internal/api/handler"
	"github.com/unievents/eventhub-api/internal/core/service"
	"github.com/unievents/eventhub-api/internal/infrastructure/db/memory"
	"github.com/unievents/eventhub-api/internal/infrastructure/security"
)

const (
	testSecret    = "router-test-secret-router-test-s"
	adminEmail    = "admin@uni.edu"
	adminPassword = "admin-password"
)

type apiFixture struct {
	e    *echo.Echo
	repo *memory.UserRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := zerolog.Nop()

	repo := memory.NewUserRepository()
	hasher, err := security.NewPasswordHasher(security.HasherOptions{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	tokens := security.NewTokenManager(testSecret, time.Hour)

	authSvc := service.NewAuthService(repo, hasher, tokens, log,
		service.WithLoginLimiter(memory.NewLoginLimiter(3, time.Minute)),
	)
	if _, _, err := authSvc.EnsureAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	e := NewRouter(Deps{
		Auth:              authSvc,
		Users:             service.NewUserService(repo, nil, nil, log),
		Verifier:          service.NewVerifier(tokens, repo, log),
		Health:            []handler.Dependency{{Name: "memory", Ping: repo.Ping}},
		Log:               log,
		MetricsRegisterer: prometheus.NewRegistry(),
	})
	return &apiFixture{e: e, repo: repo}
}

func (f *apiFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.Token == "" {
		t.Fatalf("unexpected login response: %s", rec.Body.String())
	}
	return resp.Token
}

func (f *apiFixture) register(t *testing.T, email, password string) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/auth/register", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var u struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if u.Role != "USER" {
		t.Fatalf("self-registration must yield USER, got %q", u.Role)
	}
	return u.ID
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not the JSON envelope: %v (%s)", err, rec.Body.String())
	}
	return body.Error
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	f := newAPIFixture(t)
	id := f.register(t, "u@x.com", "secret123")
	token := f.login(t, "u@x.com", "secret123")

	rec := f.do(http.MethodGet, "/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != id || me.Email != "u@x.com" || me.Role != "USER" {
		t.Fatalf("unexpected principal: %+v", me)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRouter_LoginFailuresLookIdentical(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "u@x.com", "secret123")

	wrongPassword := f.do(http.MethodPost, "/auth/login", `{"email":"u@x.com","password":"wrong-one"}`, "")
	unknownEmail := f.do(http.MethodPost, "/auth/login", `{"email":"ghost@x.com","password":"secret123"}`, "")

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
	if msg := errorMessage(t, wrongPassword); msg != "invalid credentials" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRouter_LoginThrottled(t *testing.T) {
	f := newAPIFixture(t)

	for i := 0; i < 3; i++ {
		rec := f.do(http.MethodPost, "/auth/login", `{"email":"slow@x.com","password":"guess-guess"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	rec := f.do(http.MethodPost, "/auth/login", `{"email":"slow@x.com","password":"guess-guess"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "too many login attempts" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRouter_GuardOutcomes(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "u@x.com", "secret123")
	userToken := f.login(t, "u@x.com", "secret123")
	adminToken := f.login(t, adminEmail, adminPassword)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		token      string
		wantStatus int
		wantError  string
	}{
		{"no token", http.MethodGet, "/auth/me", "", "", http.StatusUnauthorized, "unauthenticated"},
		{"garbage token", http.MethodGet, "/auth/me", "", "not-a-token", http.StatusUnauthorized, "unauthenticated"},
		{"user lists users", http.MethodGet, "/v1/users", "", userToken, http.StatusForbidden, "forbidden"},
		{"user changes a role", http.MethodPatch, "/v1/users/x/role", `{"role":"ADMIN"}`, userToken, http.StatusForbidden, "forbidden"},
		{"anonymous delete", http.MethodDelete, "/v1/users/x", "", "", http.StatusUnauthorized, "unauthenticated"},
		{"admin lists users", http.MethodGet, "/v1/users", "", adminToken, http.StatusOK, ""},
		{"admin deletes unknown user", http.MethodDelete, "/v1/users/missing", "", adminToken, http.StatusNotFound, "user not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body, tt.token)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if msg := errorMessage(t, rec); msg != tt.wantError {
					t.Fatalf("error = %q, want %q", msg, tt.wantError)
				}
			}
		})
	}
}

func TestRouter_DeletedIdentityLosesAccess(t *testing.T) {
	f := newAPIFixture(t)
	id := f.register(t, "u@x.com", "secret123")
	userToken := f.login(t, "u@x.com", "secret123")
	adminToken := f.login(t, adminEmail, adminPassword)

	if rec := f.do(http.MethodGet, "/auth/me", "", userToken); rec.Code != http.StatusOK {
		t.Fatalf("before delete: status %d", rec.Code)
	}
	if rec := f.do(http.MethodDelete, "/v1/users/"+id, "", adminToken); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}

	rec := f.do(http.MethodGet, "/auth/me", "", userToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after delete: status %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "unauthenticated" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRouter_PromotedUserReachesOrganizerRoute(t *testing.T) {
	f := newAPIFixture(t)
	id := f.register(t, "org@x.com", "secret123")
	adminToken := f.login(t, adminEmail, adminPassword)

	rec := f.do(http.MethodPatch, "/v1/users/"+id+"/role", `{"role":"ORGANIZER"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("change role: status %d body %s", rec.Code, rec.Body.String())
	}

	// The new role applies from the next login.
	orgToken := f.login(t, "org@x.com", "secret123")
	if rec := f.do(http.MethodGet, "/v1/users", "", orgToken); rec.Code != http.StatusOK {
		t.Fatalf("organizer list: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg == "" {
		t.Fatal("expected an error message")
	}

	rec = f.do(http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"secret123"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register validation: status = %d", rec.Code)
	}
	errorMessage(t, rec)

	f.register(t, "dup@x.com", "secret123")
	rec = f.do(http.MethodPost, "/auth/register", `{"email":"dup@x.com","password":"secret123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/health", "/health/ready"} {
		if rec := f.do(http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}
