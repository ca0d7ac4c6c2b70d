package tcpserver

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

func TestNewServer_DefaultLocalhostAddress(t *testing.T) {
	t.Parallel()

	s := NewServer("")
	if got := s.Addr(); got != model.DefaultTCPAddr {
		t.Fatalf("Addr() = %q, want %q", got, model.DefaultTCPAddr)
	}
}

func TestNewServer_UsesConfiguredAddressAndBuffers(t *testing.T) {
	t.Parallel()

	s := NewServer("0.0.0.0:5000", ServerConfig{
		LineChannelSize: 64,
		MaxLineSize:     2048,
	})

	if got := s.Addr(); got != "0.0.0.0:5000" {
		t.Fatalf("Addr() = %q, want %q", got, "0.0.0.0:5000")
	}
	if got := cap(s.lines); got != 64 {
		t.Fatalf("line channel cap = %d, want %d", got, 64)
	}
	if got := s.maxLineSize; got != 2048 {
		t.Fatalf("max line size = %d, want %d", got, 2048)
	}
}

func TestSplitFrames(t *testing.T) {
	t.Parallel()

	input := "<134>Mar  4 10:30:45 fw filterlog: a\n" +
		"11 <134>1 x\nyz" +
		"5,,,abc,igb0\r\n"
	sc := bufio.NewScanner(strings.NewReader(input))
	sc.Split(splitFrames)

	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	want := []string{
		"<134>Mar  4 10:30:45 fw filterlog: a",
		"<134>1 x\nyz",
		"5,,,abc,igb0",
	}
	if len(got) != len(want) {
		t.Fatalf("frames = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerReceivesLines(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop() }()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := conn.Write([]byte("first\n\nsecond\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = conn.Close()

	for _, want := range []string{"first", "second"} {
		select {
		case env := <-s.Lines():
			if env.Line != want || env.Source != "tcp" {
				t.Fatalf("envelope = %+v, want line %q from tcp", env, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestServerStopClosesLinesWithOpenConnection(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		_ = s.Stop()
		_ = s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on an idle connection")
	}
	if _, ok := <-s.Lines(); ok {
		t.Fatal("expected closed lines channel")
	}
}

func TestServerCountsConnections(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop() }()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := conn.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	<-s.Lines()
	if got := s.Connections(); got != 1 {
		t.Fatalf("Connections() = %d, want 1", got)
	}

	_ = conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for s.Connections() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Connections() = %d after close, want 0", s.Connections())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerStartReportsListenError(t *testing.T) {
	t.Parallel()

	s := NewServer("not-an-address")
	if err := s.Start(); err == nil || !strings.Contains(err.Error(), "tcpserver: listen") {
		t.Fatalf("Start err = %v, want listen error", err)
	}
}
