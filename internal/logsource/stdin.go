package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

const (
	// DefaultStdinBuffer is the channel buffer used for piped input.
	DefaultStdinBuffer = 50_000

	// DefaultStdinMaxLineSize bounds a single line. Longer lines are skipped.
	DefaultStdinMaxLineSize = 64 * 1024
)

// StdinConfig holds tunable parameters for the stdin source.
type StdinConfig struct {
	BufferSize  int
	MaxLineSize int
}

// StdinSource streams piped syslog lines, for example
// `tail -F /var/log/filter.log | pfwatch`.
type StdinSource struct {
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
	once   sync.Once
	closer io.Closer
}

func NewStdinSource(ctx context.Context, conf ...StdinConfig) *StdinSource {
	return newStdinSourceWithReader(ctx, os.Stdin, conf...)
}

func newStdinSourceWithReader(ctx context.Context, r io.Reader, conf ...StdinConfig) *StdinSource {
	c := StdinConfig{BufferSize: DefaultStdinBuffer, MaxLineSize: DefaultStdinMaxLineSize}
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			c.BufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			c.MaxLineSize = conf[0].MaxLineSize
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &StdinSource{
		ch:     make(chan model.IngestEnvelope, c.BufferSize),
		cancel: cancel,
	}
	// os.Stdin stays open for the life of the process.
	if rc, ok := r.(io.Closer); ok && r != io.Reader(os.Stdin) {
		s.closer = rc
	}

	lines := make(chan string)
	go scanLines(ctx, r, c.MaxLineSize, lines)
	go s.forward(ctx, lines)
	return s
}

// scanLines blocks on r, so it runs apart from forward and Stop does not
// have to wait for the next line to arrive.
func scanLines(ctx context.Context, r io.Reader, limit int, out chan<- string) {
	defer close(out)
	br := bufio.NewReaderSize(r, 64*1024)
	skipped := 0
	for {
		line, err := readLine(br, limit)
		switch {
		case errors.Is(err, errLineTooLong):
			skipped++
			if skipped == 1 || skipped%1000 == 0 {
				log.Printf("logsource: stdin: skipped %d lines longer than %d bytes", skipped, limit)
			}
			continue
		case line != "":
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("logsource: stdin: %v", err)
			}
			return
		}
	}
}

func (s *StdinSource) forward(ctx context.Context, lines <-chan string) {
	defer close(s.ch)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || !emit(ctx, s.ch, s.Name(), line) {
				return
			}
		}
	}
}

func (s *StdinSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *StdinSource) Name() string                       { return "stdin" }

// Stop ends the source and closes Lines. Calling it again is a no-op.
func (s *StdinSource) Stop() {
	s.once.Do(func() {
		s.cancel()
		if s.closer != nil {
			_ = s.closer.Close()
		}
	})
}
