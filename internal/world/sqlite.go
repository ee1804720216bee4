package world

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS chunks (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists chunks as JSON rows.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) a chunk database at path.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Wrapf(err, "open sqlite db %s", path)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, oops.Wrapf(err, "ping sqlite db %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, oops.Wrapf(err, "create chunks table")
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Chunk(ctx context.Context, key string) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM chunks WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Chunk{}, ErrNotFound
	}
	if err != nil {
		return Chunk{}, oops.Wrapf(err, "get chunk %s", key)
	}
	var c Chunk
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Chunk{}, oops.Wrapf(err, "decode chunk %s", key)
	}
	return c, nil
}

func (s *SQLiteStore) PutChunk(ctx context.Context, chunk Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunk.Key == "" {
		chunk.Key = chunk.Position.Key()
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return oops.Wrapf(err, "encode chunk %s", chunk.Key)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chunks (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		chunk.Key, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return oops.Wrapf(err, "put chunk %s", chunk.Key)
	}
	return nil
}
