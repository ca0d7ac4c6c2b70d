package ingest

import (
	"errors"
	"log"

	"github.com/tinytelemetry/pfwatch/internal/filterlog"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/model"
)

// parseErrorLogEvery throttles malformed-line logging after the first few.
const (
	parseErrorLogFirst = 10
	parseErrorLogEvery = 1000
)

// RecordSink receives every successfully decoded record.
type RecordSink interface {
	Add(record *model.LogRecord)
}

// ProcessResult holds the result of processing a log line.
type ProcessResult struct {
	Record *model.LogRecord
	Err    error
}

// Processor decodes source-tagged lines and forwards records to a sink.
// It is used from a single goroutine.
type Processor struct {
	decoder    *filterlog.Decoder
	sink       RecordSink
	metrics    *metrics.Collector
	sourceName string

	parseErrors uint64
}

// NewProcessor creates a processor. sourceName tags envelopes that carry
// no source of their own.
func NewProcessor(decoder *filterlog.Decoder, sink RecordSink, sourceName string, m *metrics.Collector) *Processor {
	if decoder == nil {
		decoder = filterlog.NewDecoder()
	}
	return &Processor{
		decoder:    decoder,
		sink:       sink,
		metrics:    m,
		sourceName: sourceName,
	}
}

// ProcessEnvelope decodes one line. Lines from programs other than
// filterlog are skipped silently; malformed lines are counted and logged.
func (p *Processor) ProcessEnvelope(env model.IngestEnvelope) *ProcessResult {
	if env.Line == "" {
		return nil
	}
	p.metrics.IncLines()

	record, err := p.decoder.Decode(env.Line)
	if err != nil {
		if errors.Is(err, filterlog.ErrNotFilterlog) {
			return &ProcessResult{Err: err}
		}
		p.metrics.IncParseError()
		p.parseErrors++
		if p.parseErrors <= parseErrorLogFirst || p.parseErrors%parseErrorLogEvery == 0 {
			log.Printf("ingest: skipping line from %s (%d malformed so far): %v", p.source(env), p.parseErrors, err)
		}
		return &ProcessResult{Err: err}
	}

	record.Source = p.source(env)
	if p.sink != nil {
		p.sink.Add(record)
	}
	return &ProcessResult{Record: record}
}

func (p *Processor) source(env model.IngestEnvelope) string {
	if env.Source != "" {
		return env.Source
	}
	return p.sourceName
}
