package world

import (
	"context"
	"sync"
)

// MemoryStore keeps chunks in a map. The zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]Chunk)}
}

func (s *MemoryStore) Chunk(ctx context.Context, key string) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[key]
	if !ok {
		return Chunk{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) PutChunk(ctx context.Context, chunk Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunk.Key == "" {
		chunk.Key = chunk.Position.Key()
	}
	s.mu.Lock()
	s.chunks[chunk.Key] = chunk.Clone()
	s.mu.Unlock()
	return nil
}
