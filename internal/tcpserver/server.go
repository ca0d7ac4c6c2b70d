// Package tcpserver receives syslog messages over TCP, either newline
// delimited or with RFC 6587 octet-counting framing.
package tcpserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

const (
	// DefaultLineChannelSize is the default buffer size for the incoming log line channel.
	DefaultLineChannelSize = 100_000

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single log line.
	DefaultMaxLineSize = 64 * 1024
)

// ServerConfig holds tunable parameters for the TCP server.
type ServerConfig struct {
	LineChannelSize int
	MaxLineSize     int
}

// Server accepts syslog senders (OPNsense remote logging, rsyslog
// forwarders) and publishes one envelope per message.
type Server struct {
	addr        string
	maxLineSize int
	lines       chan model.IngestEnvelope

	listener net.Listener
	active   atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer creates a new TCP server. An empty addr uses model.DefaultTCPAddr.
func NewServer(addr string, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = model.DefaultTCPAddr
	}
	c := ServerConfig{LineChannelSize: DefaultLineChannelSize, MaxLineSize: DefaultMaxLineSize}
	if len(conf) > 0 {
		if conf[0].LineChannelSize > 0 {
			c.LineChannelSize = conf[0].LineChannelSize
		}
		if conf[0].MaxLineSize > 0 {
			c.MaxLineSize = conf[0].MaxLineSize
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:        addr,
		maxLineSize: c.MaxLineSize,
		lines:       make(chan model.IngestEnvelope, c.LineChannelSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start binds the listener and accepts senders in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcpserver: listen %s: %w", s.addr, err)
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop(l)
	return nil
}

func (s *Server) acceptLoop(l net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("tcpserver: accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

// serve reads frames from one sender until it disconnects or the server
// stops. An oversized frame ends the connection since the framing can no
// longer be trusted.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	s.active.Add(1)
	defer s.active.Add(-1)
	log.Printf("tcpserver: sender %s connected", peer)

	stop := context.AfterFunc(s.ctx, func() { _ = conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), s.maxLineSize)
	scanner.Split(splitFrames)

	n := 0
	for scanner.Scan() {
		line := string(bytes.TrimRight(scanner.Bytes(), "\r\x00"))
		if line == "" {
			continue
		}
		select {
		case s.lines <- model.IngestEnvelope{Source: "tcp", Line: line}:
			n++
		case <-s.ctx.Done():
			return
		}
	}

	switch err := scanner.Err(); {
	case s.ctx.Err() != nil:
	case errors.Is(err, bufio.ErrTooLong):
		log.Printf("tcpserver: sender %s dropped after %d messages: frame exceeds %d bytes", peer, n, s.maxLineSize)
	case err != nil:
		log.Printf("tcpserver: sender %s: %v", peer, err)
	default:
		log.Printf("tcpserver: sender %s disconnected after %d messages", peer, n)
	}
}

// Connections returns the number of senders currently connected.
func (s *Server) Connections() int {
	return int(s.active.Load())
}

// splitFrames yields one syslog message per token. A frame starting with
// a decimal length and a space is octet counted; anything else ends at
// the next newline.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil
	}
	if data[0] >= '1' && data[0] <= '9' {
		sp := bytes.IndexByte(data, ' ')
		if sp > 0 && sp <= 10 {
			if n, convErr := strconv.Atoi(string(data[:sp])); convErr == nil {
				if len(data) >= sp+1+n {
					return sp + 1 + n, bytes.TrimRight(data[sp+1:sp+1+n], "\n"), nil
				}
				if !atEOF {
					return 0, nil, nil
				}
				return len(data), data[sp+1:], nil
			}
		}
	}
	return bufio.ScanLines(data, atEOF)
}

// Stop closes the listener and every open connection, waits for the
// readers to exit and closes Lines. Later calls do nothing.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.wg.Wait()
		close(s.lines)
	})
	return nil
}

func (s *Server) Lines() <-chan model.IngestEnvelope { return s.lines }

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
