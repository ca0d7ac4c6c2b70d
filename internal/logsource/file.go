package logsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

const (
	// DefaultFileBuffer is the default channel buffer size for file lines.
	DefaultFileBuffer = 50_000

	// DefaultPollInterval is how often a followed file is checked for new data.
	DefaultPollInterval = 250 * time.Millisecond
)

// FileConfig holds tunable parameters for the file source.
type FileConfig struct {
	BufferSize   int
	Follow       bool
	PollInterval time.Duration
}

// FileSource reads a log file from the beginning. In follow mode it keeps
// polling for appended data and reopens the file when it is truncated.
type FileSource struct {
	path   string
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
}

// NewFileSource opens path and starts reading it. A missing or unreadable
// file is reported here rather than on the lines channel.
func NewFileSource(ctx context.Context, path string, conf ...FileConfig) (*FileSource, error) {
	c := FileConfig{BufferSize: DefaultFileBuffer, PollInterval: DefaultPollInterval}
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			c.BufferSize = conf[0].BufferSize
		}
		if conf[0].PollInterval > 0 {
			c.PollInterval = conf[0].PollInterval
		}
		c.Follow = conf[0].Follow
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("logsource: open %s: %w", path, err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("logsource: open %s: is a directory", path)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		path:   path,
		ch:     make(chan model.IngestEnvelope, c.BufferSize),
		cancel: cancel,
	}
	go s.read(ctx, f, c)
	return s, nil
}

func (s *FileSource) read(ctx context.Context, f *os.File, c FileConfig) {
	defer close(s.ch)
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	var offset int64
	var partial strings.Builder

	var ticker *time.Ticker
	if c.Follow {
		ticker = time.NewTicker(c.PollInterval)
		defer ticker.Stop()
	}

	for {
		chunk, err := r.ReadString('\n')
		offset += int64(len(chunk))
		if err == nil {
			partial.WriteString(chunk)
			line := strings.TrimRight(partial.String(), "\r\n")
			partial.Reset()
			if !emit(ctx, s.ch, s.Name(), line) {
				return
			}
			continue
		}
		partial.WriteString(chunk)

		if !errors.Is(err, io.EOF) {
			log.Printf("logsource: read %s: %v", s.path, err)
			return
		}
		if !c.Follow {
			emit(ctx, s.ch, s.Name(), strings.TrimRight(partial.String(), "\r\n"))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := os.Stat(s.path)
		if err != nil {
			continue
		}
		if st.Size() < offset {
			log.Printf("logsource: %s was truncated, reading from the start", s.path)
			nf, err := os.Open(s.path)
			if err != nil {
				log.Printf("logsource: reopen %s: %v", s.path, err)
				continue
			}
			_ = f.Close()
			f = nf
			r.Reset(f)
			offset = 0
			partial.Reset()
		}
	}
}

func (s *FileSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *FileSource) Stop()                              { s.cancel() }
func (s *FileSource) Name() string                       { return "file" }
