package main

import (
	"context"
	"strings"
	"sync"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// DefaultMuxBuffer is the default channel buffer size for the source multiplexer.
const DefaultMuxBuffer = 10_000

// SourceMultiplexer merges every input into the single stream read by the
// ingester. Envelopes without a source are tagged with their input's name
// and blank lines are dropped.
type SourceMultiplexer struct {
	ctx    context.Context
	cancel context.CancelFunc

	sources []NamedLogSource
	out     chan model.IngestEnvelope
	done    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSourceMultiplexer(parent context.Context, sources []NamedLogSource, buffer int) *SourceMultiplexer {
	if buffer <= 0 {
		buffer = DefaultMuxBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	return &SourceMultiplexer{
		ctx:     ctx,
		cancel:  cancel,
		sources: sources,
		out:     make(chan model.IngestEnvelope, buffer),
		done:    make(chan struct{}),
	}
}

// Start begins forwarding. The output closes once every source has closed.
func (m *SourceMultiplexer) Start() {
	m.startOnce.Do(func() {
		for _, src := range m.sources {
			m.wg.Add(1)
			go m.forward(src)
		}
		go func() {
			m.wg.Wait()
			m.closeOutput()
		}()
	})
}

// Stop stops every source and waits for the forwarders to exit.
func (m *SourceMultiplexer) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		for _, src := range m.sources {
			src.Stop()
		}
		m.wg.Wait()
		m.closeOutput()
	})
}

func (m *SourceMultiplexer) HasSources() bool { return len(m.sources) > 0 }

// Names lists the inputs in start order.
func (m *SourceMultiplexer) Names() []string {
	names := make([]string, len(m.sources))
	for i, src := range m.sources {
		names[i] = src.Name()
	}
	return names
}

func (m *SourceMultiplexer) Lines() <-chan model.IngestEnvelope { return m.out }

// Done is closed when the output channel has been closed.
func (m *SourceMultiplexer) Done() <-chan struct{} { return m.done }

func (m *SourceMultiplexer) forward(src NamedLogSource) {
	defer m.wg.Done()

	name := src.Name()
	in := src.Lines()
	for {
		var env model.IngestEnvelope
		var ok bool
		select {
		case <-m.ctx.Done():
			return
		case env, ok = <-in:
			if !ok {
				return
			}
		}
		if strings.TrimSpace(env.Line) == "" {
			continue
		}
		if env.Source == "" {
			env.Source = name
		}
		select {
		case m.out <- env:
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *SourceMultiplexer) closeOutput() {
	m.closeOnce.Do(func() {
		close(m.out)
		close(m.done)
	})
}
