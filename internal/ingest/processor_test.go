package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/filterlog"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
)

const udpLine = "5,,,1000000103,em0,match,pass,out,4,0x0,,64,0,0,DF,17,udp,76,192.168.1.10,8.8.8.8,53000,53,56"

type recordingSink struct {
	records []*model.LogRecord
}

func (s *recordingSink) Add(record *model.LogRecord) {
	s.records = append(s.records, record)
}

func TestProcessor_ProcessEnvelope_UsesDefaultSource(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	p := NewProcessor(nil, sink, "stdin", nil)

	result := p.ProcessEnvelope(model.IngestEnvelope{Line: udpLine})
	if result == nil || result.Record == nil {
		t.Fatalf("expected decoded record, got %+v", result)
	}
	if got := len(sink.records); got != 1 {
		t.Fatalf("sink records = %d, want 1", got)
	}
	if got := sink.records[0].Source; got != "stdin" {
		t.Fatalf("record source = %q, want %q", got, "stdin")
	}
}

func TestProcessor_ProcessEnvelope_SourceOverride(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	p := NewProcessor(nil, sink, "stdin", nil)

	p.ProcessEnvelope(model.IngestEnvelope{Source: "tcp", Line: udpLine})
	if got := sink.records[0].Source; got != "tcp" {
		t.Fatalf("record source = %q, want %q", got, "tcp")
	}
}

func TestProcessor_MalformedLinesAreCounted(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	m := metrics.NewCollector()
	p := NewProcessor(nil, sink, "file", m)

	if r := p.ProcessEnvelope(model.IngestEnvelope{Line: "garbage"}); r == nil || !errors.Is(r.Err, filterlog.ErrMalformed) {
		t.Fatalf("result = %+v, want ErrMalformed", r)
	}
	if r := p.ProcessEnvelope(model.IngestEnvelope{Line: "<38>1 2024-03-04T12:00:00Z fw sshd 1 - - hi"}); r == nil || !errors.Is(r.Err, filterlog.ErrNotFilterlog) {
		t.Fatalf("result = %+v, want ErrNotFilterlog", r)
	}
	if p.ProcessEnvelope(model.IngestEnvelope{}) != nil {
		t.Fatal("empty line should be ignored")
	}

	if len(sink.records) != 0 {
		t.Fatalf("sink records = %d, want 0", len(sink.records))
	}
	s := m.Stats()
	if s.LinesReceived != 2 || s.ParseErrors != 1 {
		t.Fatalf("stats = %+v, want 2 lines and 1 parse error", s)
	}
}

func TestIngester_FeedsPipeline(t *testing.T) {
	t.Parallel()

	store, matches, n := pipeline.NewStore(), pipeline.NewMatchIndex(), pipeline.NewNotifier()
	m := metrics.NewCollector()
	p := pipeline.New(store, matches, n, nil, pipeline.WithMetrics(m))
	ing := NewIngester(NewProcessor(nil, NewStoreSink(store, n, m), "test", m))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	lines := make(chan model.IngestEnvelope, 4)
	lines <- model.IngestEnvelope{Line: udpLine}
	lines <- model.IngestEnvelope{Line: "not a record"}
	lines <- model.IngestEnvelope{Line: udpLine}
	close(lines)

	if err := ing.Run(ctx, lines); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2", store.Len())
	}

	deadline := time.Now().Add(2 * time.Second)
	for matches.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("matches.Len() = %d, want 2", matches.Len())
		}
		time.Sleep(time.Millisecond)
	}
	if got := m.Stats().RecordsStored; got != 2 {
		t.Fatalf("RecordsStored = %d, want 2", got)
	}
}
