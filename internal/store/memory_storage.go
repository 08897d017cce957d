package store

import (
	"context"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage is an in-process Storage used when no Redis is configured.
type MemoryStorage struct {
	mem *memory.Storage
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.mem.Get(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val []byte, expiresIn time.Duration) error {
	if expiresIn < 0 {
		expiresIn = 0
	}
	return s.mem.Set(key, val, expiresIn)
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	return s.mem.Delete(key)
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		mem: memory.New(),
	}
}
