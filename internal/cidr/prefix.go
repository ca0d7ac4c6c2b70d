// Package cidr matches addresses against sets of IPv4 and IPv6 networks.
package cidr

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInvalidPrefix is returned for malformed network literals.
var ErrInvalidPrefix = errors.New("invalid network prefix")

// Prefix is an address plus the number of leading bits that must match.
// Bits is at most 32 for IPv4 and 128 for IPv6.
type Prefix struct {
	Addr netip.Addr
	Bits int
}

// ParsePrefix parses "addr" or "addr/bits". A bare address is a host
// prefix covering the full address width.
func ParsePrefix(s string) (Prefix, error) {
	addrPart, bitsPart, hasBits := strings.Cut(strings.TrimSpace(s), "/")

	addr, err := netip.ParseAddr(addrPart)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w %q: %v", ErrInvalidPrefix, s, err)
	}
	// "::ffff:1.2.3.4" stays IPv6; zones have no meaning for matching.
	addr = addr.WithZone("")

	if !hasBits {
		return Prefix{Addr: addr, Bits: addr.BitLen()}, nil
	}

	bits, err := strconv.ParseUint(bitsPart, 10, 8)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w %q: bad prefix length", ErrInvalidPrefix, s)
	}
	if int(bits) > addr.BitLen() {
		return Prefix{}, fmt.Errorf("%w %q: prefix length %d exceeds %d", ErrInvalidPrefix, s, bits, addr.BitLen())
	}
	return Prefix{Addr: addr, Bits: int(bits)}, nil
}

// MustParsePrefix is like ParsePrefix but panics on error. Intended for tests
// and fixed tables.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Is4 reports whether the prefix is an IPv4 network.
func (p Prefix) Is4() bool { return p.Addr.Is4() }

func (p Prefix) String() string {
	return p.Addr.String() + "/" + strconv.Itoa(p.Bits)
}

// MarshalText renders the prefix in CIDR notation.
func (p Prefix) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
