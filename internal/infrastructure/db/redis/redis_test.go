package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
)

// These tests need a live Redis; set REDIS_TEST_ADDR to run them.
func testClient(t *testing.T) *Config {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	return &Config{Addr: addr, DB: 15}
}

type countingLookup struct {
	users map[string]*domain.User
	calls int
}

func (l *countingLookup) FindByID(_ context.Context, id string) (*domain.User, error) {
	l.calls++
	u, ok := l.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func TestIdentityCache_HitsAndForget(t *testing.T) {
	cfg := testClient(t)
	ctx := context.Background()
	client, err := Connect(ctx, *cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	id := uuid.NewString()
	lookup := &countingLookup{users: map[string]*domain.User{
		id: {ID: id, Email: "u@x.com", PasswordHash: "secret-hash", Role: domain.RoleUser},
	}}
	cache := NewIdentityCache(client, lookup, time.Minute, zerolog.Nop())
	t.Cleanup(func() { _ = cache.Forget(ctx, id) })

	for i := 0; i < 3; i++ {
		u, err := cache.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if u.PasswordHash != "" {
			t.Fatalf("password hash must not be cached")
		}
	}
	if lookup.calls != 1 {
		t.Fatalf("expected one store lookup, got %d", lookup.calls)
	}

	delete(lookup.users, id)
	if err := cache.Forget(ctx, id); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, err := cache.FindByID(ctx, id); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after Forget, got %v", err)
	}
}

func TestIdentityCache_DisabledPassesThrough(t *testing.T) {
	lookup := &countingLookup{users: map[string]*domain.User{"a": {ID: "a", Role: domain.RoleUser}}}
	cache := NewIdentityCache(nil, lookup, 0, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := cache.FindByID(context.Background(), "a"); err != nil {
			t.Fatalf("FindByID: %v", err)
		}
	}
	if lookup.calls != 2 {
		t.Fatalf("expected every lookup to reach the store, got %d", lookup.calls)
	}
}

func TestLoginLimiter_FixedWindow(t *testing.T) {
	cfg := testClient(t)
	ctx := context.Background()
	client, err := Connect(ctx, *cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	l := NewLoginLimiter(client, 2, time.Minute)
	key := "u@x.com|" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, l.key(key)) })

	for i := 0; i < 2; i++ {
		if ok, err := l.Allow(ctx, key); err != nil || !ok {
			t.Fatalf("attempt %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, err := l.Allow(ctx, key); err != nil || ok {
		t.Fatalf("third attempt should be throttled: ok=%v err=%v", ok, err)
	}
	if ttl := client.TTL(ctx, l.key(key)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window expiry on key, got %v", ttl)
	}
}
