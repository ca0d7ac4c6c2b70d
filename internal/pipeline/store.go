// Package pipeline holds the shared append-only record store, the derived
// match index, and the incremental filter pass that keeps the two in sync.
//
// Both collections are guarded by a single-writer/multi-reader lock over a
// plain slice. Elements are never modified or removed once appended, so a
// snapshot taken under the read lock stays a valid prefix of the live
// collection after the lock is released.
package pipeline

import (
	"sync"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// Store is the ordered, append-only sequence of decoded records. Index i
// refers to the same record for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	records []*model.LogRecord
}

func NewStore() *Store {
	return &Store{}
}

// Append adds rec and returns its index. rec must not be modified afterwards.
func (s *Store) Append(rec *model.LogRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return len(s.records) - 1
}

// Len returns the number of records appended so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// At returns the record at index i.
func (s *Store) At(i int) (*model.LogRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) {
		return nil, false
	}
	return s.records[i], true
}

// Snapshot returns the records appended so far. The returned slice must be
// treated as read-only; later appends never touch it.
func (s *Store) Snapshot() []*model.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[:len(s.records):len(s.records)]
}

// MatchIndex is the ascending, append-only list of store indices that
// passed the filter. The pipeline is its only writer.
type MatchIndex struct {
	mu      sync.RWMutex
	indices []int
}

func NewMatchIndex() *MatchIndex {
	return &MatchIndex{}
}

func (m *MatchIndex) append(idx []int) {
	if len(idx) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices = append(m.indices, idx...)
}

func (m *MatchIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indices)
}

// At returns the store index of the i-th match.
func (m *MatchIndex) At(i int) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.indices) {
		return 0, false
	}
	return m.indices[i], true
}

// Snapshot returns the matches recorded so far, read-only.
func (m *MatchIndex) Snapshot() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indices[:len(m.indices):len(m.indices)]
}

// Range returns up to limit store indices starting at match position
// offset. Out-of-range offsets yield an empty slice.
func (m *MatchIndex) Range(offset, limit int) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset < 0 || offset >= len(m.indices) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(m.indices) {
		end = len(m.indices)
	}
	out := make([]int, end-offset)
	copy(out, m.indices[offset:end])
	return out
}
