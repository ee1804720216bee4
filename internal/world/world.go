// Package world is the narrow accessor the turn core uses to read and write
// map chunks. Chunks are keyed by position and always replaced whole.
package world

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/suderio/dreamland/internal/engine"
)

// ErrNotFound is returned by stores for chunks that were never written.
var ErrNotFound = errors.New("chunk not found")

// DefaultTerrain is the terrain of an unwritten chunk.
const DefaultTerrain = "grass"

// Chunk is one cell of the world grid.
type Chunk struct {
	Key        string          `json:"key"`
	Position   engine.Position `json:"position"`
	Terrain    string          `json:"terrain"`
	Walkable   bool            `json:"walkable"`
	Structures []string        `json:"structures,omitempty"`
	Items      map[string]int  `json:"items,omitempty"`
}

// NewChunk returns an open, empty chunk at pos.
func NewChunk(pos engine.Position) Chunk {
	return Chunk{Key: pos.Key(), Position: pos, Terrain: DefaultTerrain, Walkable: true}
}

// Clone returns a deep copy.
func (c Chunk) Clone() Chunk {
	c.Structures = slices.Clone(c.Structures)
	c.Items = maps.Clone(c.Items)
	return c
}

// ChunkStore reads and writes whole chunks.
type ChunkStore interface {
	Chunk(ctx context.Context, key string) (Chunk, error)
	PutChunk(ctx context.Context, chunk Chunk) error
}

// Map resolves positions against a store, filling in open ground where
// nothing has been written.
type Map struct {
	store ChunkStore
}

// NewMap wraps a store.
func NewMap(store ChunkStore) *Map {
	return &Map{store: store}
}

// At returns the chunk at pos.
func (m *Map) At(ctx context.Context, pos engine.Position) (Chunk, error) {
	c, err := m.store.Chunk(ctx, pos.Key())
	if errors.Is(err, ErrNotFound) {
		return NewChunk(pos), nil
	}
	if err != nil {
		return Chunk{}, err
	}
	return c, nil
}

// AddStructure records a finished structure at pos.
func (m *Map) AddStructure(ctx context.Context, pos engine.Position, structure string) error {
	c, err := m.At(ctx, pos)
	if err != nil {
		return err
	}
	c = c.Clone()
	c.Structures = append(c.Structures, structure)
	return m.store.PutChunk(ctx, c)
}

// AddItems leaves items on the ground at pos.
func (m *Map) AddItems(ctx context.Context, pos engine.Position, item string, qty int) error {
	c, err := m.At(ctx, pos)
	if err != nil {
		return err
	}
	c = c.Clone()
	if c.Items == nil {
		c.Items = make(map[string]int)
	}
	c.Items[item] += qty
	return m.store.PutChunk(ctx, c)
}
