// Package narrative buffers story text during a turn and merges it into a
// bounded, id-addressable log once per tick.
package narrative

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Kind classifies an entry for styling.
type Kind string

const (
	KindNarrative Kind = "narrative"
	KindAction    Kind = "action"
	KindSystem    Kind = "system"
	KindMonologue Kind = "monologue"
)

// Animation is optional presentation metadata.
type Animation struct {
	Style    string `json:"style,omitempty"`
	Duration int    `json:"duration_ms,omitempty"`
}

// Entry is one line of the story log.
type Entry struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Kind      Kind       `json:"kind"`
	Animation *Animation `json:"animation,omitempty"`
	IsNew     bool       `json:"is_new"`
}

// NewID returns a fresh ULID string.
func NewID() string {
	return ulid.Make().String()
}

// Queue collects entries between flushes. Enqueue never blocks on the log.
type Queue struct {
	mu      sync.Mutex
	pending []Entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue adds text under id, or under a fresh ULID when id is empty. An
// entry with the same id already waiting in the queue is replaced in place.
// The id is returned so callers can refine the entry later.
func (q *Queue) Enqueue(text string, kind Kind, id ...string) string {
	e := Entry{Text: text, Kind: kind}
	if len(id) > 0 && id[0] != "" {
		e.ID = id[0]
	}
	return q.Push(e)
}

// Push is Enqueue for a prepared entry.
func (q *Queue) Push(e Entry) string {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Kind == "" {
		e.Kind = KindNarrative
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.pending {
		if q.pending[i].ID == e.ID {
			q.pending[i] = e
			return e.ID
		}
	}
	q.pending = append(q.pending, e)
	return e.ID
}

// Len reports the number of waiting entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush merges the queue into log and empties it. Flushing an empty queue
// leaves the log untouched.
func (q *Queue) Flush(log *Log) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	if len(batch) == 0 {
		return 0
	}
	log.Merge(batch)
	return len(batch)
}

// Log is the persistent, capped story the UI renders.
type Log struct {
	mu      sync.RWMutex
	cap     int
	entries []Entry
}

// NewLog returns a log that keeps at most capacity trailing entries. A
// non-positive capacity means unbounded.
func NewLog(capacity int) *Log {
	return &Log{cap: capacity}
}

// Merge upserts entries by id. Existing ids get their text and kind
// replaced and lose the new flag; unknown ids are appended as new. The
// result is deduplicated last-write-wins in first-seen order, then trimmed
// to the cap from the front.
func (l *Log) Merge(batch []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range batch {
		found := false
		for i := range l.entries {
			if l.entries[i].ID == e.ID {
				l.entries[i].Text = e.Text
				l.entries[i].Kind = e.Kind
				if e.Animation != nil {
					l.entries[i].Animation = e.Animation
				}
				l.entries[i].IsNew = false
				found = true
			}
		}
		if !found {
			e.IsNew = true
			l.entries = append(l.entries, e)
		}
	}

	l.entries = dedupe(l.entries)
	if l.cap > 0 && len(l.entries) > l.cap {
		l.entries = append([]Entry(nil), l.entries[len(l.entries)-l.cap:]...)
	}
}

// dedupe keeps one entry per id at its first position, carrying the last
// written value.
func dedupe(in []Entry) []Entry {
	last := make(map[string]Entry, len(in))
	for _, e := range in {
		last[e.ID] = e
	}
	out := in[:0:0]
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, last[e.ID])
	}
	return out
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Tail returns up to the last n entries.
func (l *Log) Tail(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]Entry(nil), l.entries[len(l.entries)-n:]...)
}

// Get looks an entry up by id.
func (l *Log) Get(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// MarkSeen clears every new flag, typically after a render.
func (l *Log) MarkSeen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		l.entries[i].IsNew = false
	}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Texts is a convenience view of the entry texts in order.
func Texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}
