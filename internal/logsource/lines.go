package logsource

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// errLineTooLong is returned by readLine for a line longer than the limit.
// The line has been consumed and the reader is positioned after it.
var errLineTooLong = errors.New("line too long")

// readLine reads one newline-terminated line without the terminator. The
// final unterminated line is returned together with io.EOF.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var sb strings.Builder
	overflow := false
	for {
		frag, err := br.ReadSlice('\n')
		if !overflow {
			if sb.Len()+len(frag) > limit+1 {
				overflow = true
				sb.Reset()
			} else {
				sb.Write(frag)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if overflow && err == nil {
			return "", errLineTooLong
		}
		return strings.TrimRight(sb.String(), "\r\n"), err
	}
}

// emit sends a non-blank line tagged with source. It reports false once ctx
// is done.
func emit(ctx context.Context, ch chan<- model.IngestEnvelope, source, line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	select {
	case ch <- model.IngestEnvelope{Source: source, Line: line}:
		return true
	case <-ctx.Done():
		return false
	}
}
