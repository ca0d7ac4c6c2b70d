// Package ingest turns raw syslog envelopes into records in the shared
// store, waking the filter pipeline as they arrive.
package ingest

import (
	"context"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// Ingester drains an envelope channel through a Processor.
type Ingester struct {
	processor *Processor
}

func NewIngester(p *Processor) *Ingester {
	return &Ingester{processor: p}
}

// Run processes envelopes until lines is closed or ctx is done. It
// returns nil in both cases; ingestion errors are per line and never
// stop the loop.
func (i *Ingester) Run(ctx context.Context, lines <-chan model.IngestEnvelope) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-lines:
			if !ok {
				return nil
			}
			i.processor.ProcessEnvelope(env)
		}
	}
}
