package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func TestStdinSourceStopClosesLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()

	select {
	case _, ok := <-src.Lines():
		if ok {
			t.Fatal("expected lines channel to be closed after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lines channel to close")
	}
}

func TestStdinSourceStopIsIdempotent(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()
	src.Stop()
}

func TestStdinSourceSkipsBlankLines(t *testing.T) {
	src := newStdinSourceWithReader(context.Background(), strings.NewReader("a\n\nb\n"))
	defer src.Stop()

	var got []string
	for env := range src.Lines() {
		if env.Source != "stdin" {
			t.Fatalf("Source = %q, want stdin", env.Source)
		}
		got = append(got, env.Line)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("lines = %v, want [a b]", got)
	}
}

func TestStdinSourceSkipsOverlongLines(t *testing.T) {
	input := "<134>short\n" + strings.Repeat("x", 100) + "\r\n<134>after\nno newline"
	src := newStdinSourceWithReader(context.Background(), strings.NewReader(input), StdinConfig{MaxLineSize: 32})
	defer src.Stop()

	var got []string
	for env := range src.Lines() {
		got = append(got, env.Line)
	}
	want := "<134>short|<134>after|no newline"
	if strings.Join(got, "|") != want {
		t.Fatalf("lines = %q, want %q", strings.Join(got, "|"), want)
	}
}

func TestReadLineLongerThanReaderBuffer(t *testing.T) {
	long := strings.Repeat("a", 40_000)
	br := bufio.NewReaderSize(strings.NewReader(long+"\nb\n"), 16)

	line, err := readLine(br, 64*1024)
	if err != nil || line != long {
		t.Fatalf("readLine = (%d bytes, %v), want %d bytes", len(line), err, len(long))
	}
	line, err = readLine(br, 64*1024)
	if err != nil || line != "b" {
		t.Fatalf("readLine = (%q, %v), want b", line, err)
	}
	if _, err := readLine(br, 64*1024); !errors.Is(err, io.EOF) {
		t.Fatalf("readLine at end err = %v, want EOF", err)
	}
}
