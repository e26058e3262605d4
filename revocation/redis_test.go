package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := newFakeClock()
	return NewRedis(client, "trv", clock.Now), mr, clock
}

func TestRedisRevokeIsRevoked(t *testing.T) {
	store, _, clock := newTestRedis(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil || revoked {
		t.Fatalf("fresh key: revoked=%v err=%v", revoked, err)
	}

	if err := store.Revoke(ctx, "token-1", clock.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "token-1")
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}
}

func TestRedisRevokeSkipsExpiredCredential(t *testing.T) {
	store, _, clock := newTestRedis(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-1", clock.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil || revoked {
		t.Fatalf("expired credential stored: revoked=%v err=%v", revoked, err)
	}
}

func TestRedisRevokeKeepsLongerTTL(t *testing.T) {
	store, mr, clock := newTestRedis(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-1", clock.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Revoke(ctx, "token-1", clock.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// The entry must survive past the shorter expiry.
	mr.FastForward(10 * time.Minute)
	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil || !revoked {
		t.Fatalf("ttl truncated: revoked=%v err=%v", revoked, err)
	}
}

func TestRedisEntriesExpireNatively(t *testing.T) {
	store, mr, clock := newTestRedis(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-1", clock.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil || revoked {
		t.Fatalf("entry outlived ttl: revoked=%v err=%v", revoked, err)
	}
}
