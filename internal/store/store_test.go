package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cacheEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	entries := New[cacheEntry](NewMemoryStorage(), "e:")

	want := cacheEntry{Name: "alpha", Count: 3}
	if err := entries.Set(ctx, "k1", want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := entries.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := entries.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := entries.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreMissingKey(t *testing.T) {
	entries := New[cacheEntry](NewMemoryStorage(), "e:")
	if _, err := entries.Get(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStorage()
	a := New[cacheEntry](backing, "a:")
	b := New[cacheEntry](backing, "b:")

	if err := a.Set(ctx, "shared", cacheEntry{Name: "from-a"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := b.Get(ctx, "shared"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("prefix b should not see prefix a's keys, got %v", err)
	}

	raw, err := backing.Get(ctx, "a:shared")
	if err != nil {
		t.Fatalf("expected the prefixed key in the backing storage, got %v", err)
	}
	if len(raw) == 0 {
		t.Error("stored value is empty")
	}
}

func TestMemoryStorageExpiry(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	if err := storage.Set(ctx, "short", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := storage.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
