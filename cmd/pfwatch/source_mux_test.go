package main

import (
	"context"
	"testing"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

type fakeSource struct {
	name    string
	lines   chan model.IngestEnvelope
	stopped chan struct{}
}

func newFakeSource(name string, buffer int) *fakeSource {
	return &fakeSource{
		name:    name,
		lines:   make(chan model.IngestEnvelope, buffer),
		stopped: make(chan struct{}),
	}
}

func (s *fakeSource) Lines() <-chan model.IngestEnvelope { return s.lines }
func (s *fakeSource) Name() string                       { return s.name }

func (s *fakeSource) Stop() {
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
		close(s.lines)
	}
}

func collect(t *testing.T, mux *SourceMultiplexer) []model.IngestEnvelope {
	t.Helper()
	var got []model.IngestEnvelope
	timeout := time.After(2 * time.Second)
	for {
		select {
		case env, ok := <-mux.Lines():
			if !ok {
				return got
			}
			got = append(got, env)
		case <-timeout:
			t.Fatalf("timed out waiting for multiplexer to close; got %+v", got)
		}
	}
}

func TestSourceMultiplexer_ForwardsFromAllSources(t *testing.T) {
	t.Parallel()

	a := newFakeSource("file", 2)
	b := newFakeSource("tcp", 2)
	mux := NewSourceMultiplexer(context.Background(), []NamedLogSource{a, b}, 16)
	mux.Start()
	defer mux.Stop()

	a.lines <- model.IngestEnvelope{Line: "alpha"}
	b.lines <- model.IngestEnvelope{Source: "tcp:10.0.0.1", Line: "beta"}
	a.Stop()
	b.Stop()

	got := map[string]string{}
	for _, env := range collect(t, mux) {
		got[env.Line] = env.Source
	}
	if got["alpha"] != "file" {
		t.Errorf("alpha source = %q, want file", got["alpha"])
	}
	if got["beta"] != "tcp:10.0.0.1" {
		t.Errorf("beta source = %q, want tcp:10.0.0.1", got["beta"])
	}
}

func TestSourceMultiplexer_DropsBlankLines(t *testing.T) {
	t.Parallel()

	src := newFakeSource("stdin", 4)
	mux := NewSourceMultiplexer(context.Background(), []NamedLogSource{src}, 4)
	mux.Start()

	src.lines <- model.IngestEnvelope{Line: ""}
	src.lines <- model.IngestEnvelope{Line: "  \t"}
	src.lines <- model.IngestEnvelope{Line: "kept"}
	src.Stop()

	got := collect(t, mux)
	if len(got) != 1 || got[0].Line != "kept" {
		t.Fatalf("got %+v, want only the non-blank line", got)
	}
	select {
	case <-mux.Done():
	default:
		t.Fatal("Done() not closed after output closed")
	}
}

func TestSourceMultiplexer_NoSourcesClosesImmediately(t *testing.T) {
	t.Parallel()

	mux := NewSourceMultiplexer(context.Background(), nil, 0)
	mux.Start()
	if got := collect(t, mux); len(got) != 0 {
		t.Fatalf("got %+v, want nothing", got)
	}
	if mux.HasSources() {
		t.Fatal("HasSources() = true with no sources")
	}
}

func TestSourceMultiplexer_StopInvokesSourceStop(t *testing.T) {
	t.Parallel()

	src := newFakeSource("x", 1)
	mux := NewSourceMultiplexer(context.Background(), []NamedLogSource{src}, 8)
	mux.Start()
	mux.Stop()

	select {
	case <-src.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected source Stop() to be called")
	}
	if names := mux.Names(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("Names() = %v, want [x]", names)
	}
}
