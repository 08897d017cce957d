package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FalakNet/Account/internal/store"
	"github.com/FalakNet/Account/params"
)

func TestSessionCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache(store.NewMemoryStorage(), "cache-secret")

	expiresAt := time.Now().Add(time.Hour)
	if err := cache.Put(ctx, "token-1", 21, 7, expiresAt); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	cached, found := cache.Get(ctx, "token-1")
	if !found {
		t.Fatal("expected a cache hit")
	}
	if cached.SessionID != 21 || cached.UserID != 7 {
		t.Errorf("cached = %+v", cached)
	}

	if _, found := cache.Get(ctx, "token-2"); found {
		t.Error("unexpected hit for a token never cached")
	}

	if err := cache.Drop(ctx, "token-1"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, found := cache.Get(ctx, "token-1"); found {
		t.Error("unexpected hit after drop")
	}
}

func TestSessionCacheExpiredEntry(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache(store.NewMemoryStorage(), "cache-secret")

	// already expired, Put is a no-op
	if err := cache.Put(ctx, "token-1", 21, 7, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, found := cache.Get(ctx, "token-1"); found {
		t.Error("expired session must never be served from cache")
	}
}

func TestSessionCacheNeverStoresRawTokens(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	cache := NewSessionCache(storage, "cache-secret")

	const token = "raw-session-token-value"
	if err := cache.Put(ctx, token, 21, 7, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// the backing key is the HMAC of the token, not the token itself
	if _, err := storage.Get(ctx, params.SessionCacheKeyPrefix+token); !errors.Is(err, store.ErrNotFound) {
		t.Error("raw token value used as a cache key")
	}

	hit, found := cache.Get(ctx, token)
	if !found {
		t.Fatal("expected a cache hit through the hashed key")
	}
	if hit.SessionID != 21 {
		t.Errorf("unexpected cached entry %+v", hit)
	}
}
