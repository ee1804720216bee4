// Package telemetry records gameplay statistics as an append-only JSONL
// event log.
package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is one recorded statistic.
type Event struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Store appends events to a JSONL file.
type Store struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewStore opens or creates a JSONL event log at the given path.
func NewStore(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry log: %w", err)
	}
	return &Store{file: file, now: time.Now}, nil
}

// Record appends one event line.
func (s *Store) Record(ctx context.Context, name string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	evt := Event{ID: ulid.Make().String(), Name: name, At: s.now().UTC(), Fields: fields}
	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return err
	}
	return s.file.Sync()
}

// Load reads every event back in order.
func (s *Store) Load() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Seek(0, 0); err != nil {
		return nil, err
	}

	var events []Event
	scanner := bufio.NewScanner(s.file)
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, evt)
	}
	return events, scanner.Err()
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.file.Close()
}

// Tally counts events by name.
func Tally(events []Event) map[string]int {
	out := make(map[string]int)
	for _, e := range events {
		out[e.Name]++
	}
	return out
}

// Memory keeps events in a slice. It is the sink used when no log path is
// configured.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ context.Context, name string, fields map[string]any) error {
	m.mu.Lock()
	m.events = append(m.events, Event{ID: ulid.Make().String(), Name: name, At: time.Now().UTC(), Fields: fields})
	m.mu.Unlock()
	return nil
}

// Events returns a copy of what was recorded.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
