package audit

import (
	"context"
	"sync"
	"time"
)

// Entry is one recorded authorization decision
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Role           string    `json:"role"`
	Action         string    `json:"action"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id,omitempty"`
	Allowed        bool      `json:"allowed"`
	ReasonKind     string    `json:"reason_kind"`
	Reason         string    `json:"reason"`
	MatchedRuleRef string    `json:"matched_rule_ref,omitempty"`
	DurationMicros int64     `json:"duration_us"`
}

// Recorder persists decision entries. Recording failures must never affect
// the decision result; callers log and move on.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	Close() error
}

// MemoryRecorder keeps the most recent entries in a bounded ring. Used in
// tests and in deployments without an audit database.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewMemoryRecorder creates a memory recorder retaining up to limit entries
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryRecorder{limit: limit}
}

// Record implements Recorder
func (m *MemoryRecorder) Record(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
	return nil
}

// Entries returns a copy of the retained entries, oldest first
func (m *MemoryRecorder) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Close implements Recorder
func (m *MemoryRecorder) Close() error {
	return nil
}
