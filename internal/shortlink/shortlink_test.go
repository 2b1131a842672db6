package shortlink

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func TestCreateResolve(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "payload-abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	got, err := s.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "payload-abc" {
		t.Fatalf("payload = %q", got)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.Resolve(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "p")
	if err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := s.Resolve(ctx, token); err != ErrNotFound {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	token, _ := s.Create(ctx, "p")
	if err := s.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Resolve(ctx, token); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
