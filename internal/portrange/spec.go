// Package portrange tests port numbers against configured ports and ranges.
package portrange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSpec is returned for malformed port literals.
var ErrInvalidSpec = errors.New("invalid port spec")

// Spec is a single port (Start == End) or an inclusive range.
type Spec struct {
	Start uint16
	End   uint16
}

// Single reports whether the spec names exactly one port.
func (s Spec) Single() bool { return s.Start == s.End }

func (s Spec) String() string {
	if s.Single() {
		return strconv.Itoa(int(s.Start))
	}
	return strconv.Itoa(int(s.Start)) + "-" + strconv.Itoa(int(s.End))
}

// MarshalText renders the spec as it was written.
func (s Spec) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSpec parses "port" or "start-end". Bounds are not reordered; a
// reversed range is returned as written.
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if startStr, endStr, ok := strings.Cut(s, "-"); ok {
		start, err := parsePort(startStr)
		if err != nil {
			return Spec{}, fmt.Errorf("%w %q: %v", ErrInvalidSpec, s, err)
		}
		end, err := parsePort(endStr)
		if err != nil {
			return Spec{}, fmt.Errorf("%w %q: %v", ErrInvalidSpec, s, err)
		}
		return Spec{Start: start, End: end}, nil
	}

	port, err := parsePort(s)
	if err != nil {
		return Spec{}, fmt.Errorf("%w %q: %v", ErrInvalidSpec, s, err)
	}
	return Spec{Start: port, End: port}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
