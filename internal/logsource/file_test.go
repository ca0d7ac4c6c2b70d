package logsource

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collect(t *testing.T, src LogSource, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(3 * time.Second)
	for len(got) < n {
		select {
		case env, ok := <-src.Lines():
			if !ok {
				return got
			}
			got = append(got, env.Line)
		case <-timeout:
			t.Fatalf("timed out after %d of %d lines: %v", len(got), n, got)
		}
	}
	return got
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(context.Background(), filepath.Join(t.TempDir(), "nope.log"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestFileSourceReadsToEOFAndCloses(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filter.log")
	if err := os.WriteFile(path, []byte("one\r\n\ntwo\nthree"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src, err := NewFileSource(context.Background(), path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	got := collect(t, src, 4)
	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Fatalf("lines = %q, want [one two three]", got)
	}
	if src.Name() != "file" {
		t.Fatalf("Name() = %q", src.Name())
	}
}

func TestFileSourceFollowsAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filter.log")
	if err := os.WriteFile(path, []byte("one\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src, err := NewFileSource(context.Background(), path, FileConfig{Follow: true, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	if got := collect(t, src, 1); got[0] != "one" {
		t.Fatalf("first line = %q", got[0])
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	// A line written in two parts is delivered once, whole.
	_, _ = f.WriteString("tw")
	time.Sleep(30 * time.Millisecond)
	_, _ = f.WriteString("o\n")
	_ = f.Close()

	if got := collect(t, src, 1); got[0] != "two" {
		t.Fatalf("appended line = %q, want two", got[0])
	}
}

func TestFileSourceFollowHandlesTruncation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filter.log")
	if err := os.WriteFile(path, []byte("a long first line\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src, err := NewFileSource(context.Background(), path, FileConfig{Follow: true, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()
	collect(t, src, 1)

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := collect(t, src, 1); got[0] != "new" {
		t.Fatalf("line after truncation = %q, want new", got[0])
	}
}
