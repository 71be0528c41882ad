package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

func seedUsers(t *testing.T, repo *stubUserRepo, n int, role domain.Role) []*domain.User {
	t.Helper()
	out := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := repo.Create(context.Background(), &domain.User{
			ID:        fmt.Sprintf("%s-%03d", role, i),
			Email:     fmt.Sprintf("%s-%03d@x.com", role, i),
			Role:      role,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, u)
	}
	return out
}

func TestUserService_List_Paging(t *testing.T) {
	repo := newStubUserRepo()
	seedUsers(t, repo, 25, domain.RoleUser)
	seedUsers(t, repo, 3, domain.RoleOrganizer)
	svc := NewUserService(repo, nil, nil, zerolog.Nop())

	res, err := svc.List(context.Background(), ports.ListUsersInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Page != 1 || res.Limit != defaultPageSize || res.Total != 28 || res.TotalPages != 2 || len(res.Items) != defaultPageSize {
		t.Fatalf("unexpected default page: page=%d limit=%d total=%d pages=%d items=%d",
			res.Page, res.Limit, res.Total, res.TotalPages, len(res.Items))
	}

	res, err = svc.List(context.Background(), ports.ListUsersInput{Role: "organizer", Limit: 1000})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Limit != maxPageSize || res.Total != 3 || res.TotalPages != 1 {
		t.Fatalf("unexpected filtered page: %+v", res)
	}
	for _, u := range res.Items {
		if u.Role != domain.RoleOrganizer {
			t.Fatalf("unexpected role in filtered list: %s", u.Role)
		}
	}

	if _, err := svc.List(context.Background(), ports.ListUsersInput{Role: "superuser"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestUserService_List_HugePageIsClamped(t *testing.T) {
	repo := newStubUserRepo()
	seedUsers(t, repo, 3, domain.RoleUser)
	svc := NewUserService(repo, nil, nil, zerolog.Nop())

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: math.MaxInt, Limit: maxPageSize})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Page != maxPage || len(res.Items) != 0 || res.Total != 3 {
		t.Fatalf("unexpected page: page=%d items=%d total=%d", res.Page, len(res.Items), res.Total)
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	repo := newStubUserRepo()
	admin := seedUsers(t, repo, 1, domain.RoleAdmin)[0]
	target := seedUsers(t, repo, 1, domain.RoleUser)[0]
	cache := &stubCache{}
	recorder := &stubRecorder{}
	svc := NewUserService(repo, cache, recorder, zerolog.Nop())

	updated, err := svc.ChangeRole(context.Background(), admin.Principal(), target.ID, domain.RoleOrganizer)
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if updated.Role != domain.RoleOrganizer {
		t.Fatalf("expected ORGANIZER, got %s", updated.Role)
	}
	if len(cache.forgotten) != 1 || cache.forgotten[0] != target.ID {
		t.Fatalf("expected cache eviction, got %v", cache.forgotten)
	}
	if len(recorder.events) != 1 || recorder.events[0].Type != domain.EventUserRoleChanged || recorder.events[0].ActorID != admin.ID {
		t.Fatalf("unexpected audit events: %+v", recorder.events)
	}
}

func TestUserService_ChangeRole_Errors(t *testing.T) {
	repo := newStubUserRepo()
	admin := seedUsers(t, repo, 1, domain.RoleAdmin)[0]
	svc := NewUserService(repo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.ChangeRole(ctx, nil, "x", domain.RoleUser); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden without actor, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, admin.Principal(), "x", domain.Role("ROOT")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, admin.Principal(), admin.ID, domain.RoleUser); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self change, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, admin.Principal(), "missing", domain.RoleUser); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete_RevokesTokens(t *testing.T) {
	f := newAuthFixture(t)
	admin := seedUsers(t, f.repo, 1, domain.RoleAdmin)[0]
	victim := f.register(t, "u@x.com", "secret123")
	res, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "u@x.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	cache := &stubCache{}
	recorder := &stubRecorder{}
	svc := NewUserService(f.repo, cache, recorder, zerolog.Nop())
	verifier := NewVerifier(f.tokens, f.repo, zerolog.Nop())

	if err := svc.Delete(context.Background(), admin.Principal(), victim.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := verifier.Verify(context.Background(), res.Token); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected token of deleted user to be rejected, got %v", err)
	}
	if len(cache.forgotten) != 1 || cache.forgotten[0] != victim.ID {
		t.Fatalf("expected cache eviction, got %v", cache.forgotten)
	}
	if len(recorder.events) != 1 || recorder.events[0].Type != domain.EventUserDeleted {
		t.Fatalf("unexpected audit events: %+v", recorder.events)
	}
	if got := recorder.events[0]; got.Email != "u@x.com" || got.Key() != (domain.AuthEvent{Email: "U@x.com"}).Key() {
		t.Fatalf("delete event must shard with the identity's login events: %+v", got)
	}

	if err := svc.Delete(context.Background(), admin.Principal(), victim.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), admin.Principal(), admin.ID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on self delete, got %v", err)
	}
}
