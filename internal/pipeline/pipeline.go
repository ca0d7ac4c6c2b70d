package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/tinytelemetry/pfwatch/internal/filter"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
)

// Pipeline evaluates newly appended records against a fixed filter and
// appends the indices that pass to the match index. It never revisits an
// index once its cursor has moved past it.
type Pipeline struct {
	store    *Store
	matches  *MatchIndex
	notifier *Notifier
	filter   *filter.Filter
	metrics  *metrics.Collector

	mu     sync.Mutex // serialises drains
	cursor int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics counts drains and matches on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// New builds a pipeline over store. A nil filter passes every record.
func New(store *Store, matches *MatchIndex, notifier *Notifier, f *filter.Filter, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		matches:  matches,
		notifier: notifier,
		filter:   f,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cursor returns the number of store records already evaluated.
func (p *Pipeline) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// DrainOnce evaluates every record between the cursor and the store length
// observed at the start of the call, then advances the cursor to that
// length. It returns the number of new matches.
func (p *Pipeline) DrainOnce() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	records := p.store.Snapshot()
	end := len(records)
	if p.cursor >= end {
		return 0
	}

	var batch []int
	for i := p.cursor; i < end; i++ {
		rec := records[i]
		if p.filter.Evaluate(rec) {
			batch = append(batch, i)
			p.metrics.IncMatched(rec.Action)
		}
	}
	p.cursor = end
	p.metrics.IncDrain()

	p.matches.append(batch)
	return len(batch)
}

// Run waits for wake signals and drains after each one until ctx is done.
// A signal that arrived before Run was called is not lost.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		if err := p.notifier.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		p.DrainOnce()
	}
}
