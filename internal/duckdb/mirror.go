package duckdb

import (
	"context"
	"sync"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
)

const (
	// DefaultMirrorBatchSize caps the rows written per transaction.
	DefaultMirrorBatchSize = 2000

	// DefaultMirrorInterval is how often the mirror looks for new matches.
	DefaultMirrorInterval = time.Second
)

// MirrorConfig holds tunable parameters for the mirror.
type MirrorConfig struct {
	BatchSize int
	Interval  time.Duration
	Metrics   *metrics.Collector
}

// Mirror copies newly matched records into the store. Like the filter
// pipeline it keeps its own cursor into the match index and only ever
// reads the suffix it has not copied yet.
type Mirror struct {
	store    *Store
	records  *pipeline.Store
	matches  *pipeline.MatchIndex
	batch    int
	interval time.Duration
	metrics  *metrics.Collector

	mu     sync.Mutex
	cursor int
}

func NewMirror(store *Store, records *pipeline.Store, matches *pipeline.MatchIndex, conf ...MirrorConfig) *Mirror {
	m := &Mirror{
		store:    store,
		records:  records,
		matches:  matches,
		batch:    DefaultMirrorBatchSize,
		interval: DefaultMirrorInterval,
	}
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			m.batch = conf[0].BatchSize
		}
		if conf[0].Interval > 0 {
			m.interval = conf[0].Interval
		}
		m.metrics = conf[0].Metrics
	}
	return m
}

// Cursor returns how many matches have been copied.
func (m *Mirror) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Flush copies every match not yet mirrored, one batch per transaction.
// The cursor only advances past batches that were committed.
func (m *Mirror) Flush(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := m.matches.Snapshot()
	// Taken second so every matched index is in range.
	records := m.records.Snapshot()
	copied := 0

	for m.cursor < len(positions) {
		end := m.cursor + m.batch
		if end > len(positions) {
			end = len(positions)
		}
		rows := make([]MatchRow, 0, end-m.cursor)
		for pos := m.cursor; pos < end; pos++ {
			idx := positions[pos]
			rows = append(rows, MatchRow{Position: pos, RecordIndex: idx, Record: records[idx]})
		}
		if err := m.store.InsertMatches(ctx, rows); err != nil {
			m.metrics.IncMirrorError()
			logDropped(m.cursor, end, err)
			return copied, err
		}
		m.metrics.AddMirrorRows(len(rows))
		copied += len(rows)
		m.cursor = end
	}
	return copied, nil
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (m *Mirror) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), m.store.QueryTimeout)
			_, _ = m.Flush(final)
			cancel()
			return nil
		case <-ticker.C:
			_, _ = m.Flush(ctx)
		}
	}
}
