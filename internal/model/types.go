package model

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Action is the verdict pf applied to a packet.
type Action int

const (
	ActionPass Action = iota
	ActionBlock
	ActionReject
)

// String returns the lower-case name used in filterlog lines.
func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionBlock:
		return "block"
	case ActionReject:
		return "reject"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction accepts the filterlog spelling in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return ActionPass, nil
	case "block":
		return ActionBlock, nil
	case "reject":
		return ActionReject, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText renders the action name for YAML/JSON output.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Direction is the traffic direction relative to the interface.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	if d == DirectionOut {
		return "out"
	}
	return "in"
}

// ParseDirection accepts "in" or "out".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// ProtocolKind tags the transport protocol of a record.
type ProtocolKind int

const (
	ProtocolOther ProtocolKind = iota
	ProtocolTCP
	ProtocolUDP
)

// Protocol is the IP protocol carried by the packet. Name is the
// lower-case protocol name ("tcp", "udp", "icmp", ...).
type Protocol struct {
	Kind ProtocolKind
	ID   int
	Name string
}

// TCP and UDP are the protocols that carry a port pair.
var (
	TCP = Protocol{Kind: ProtocolTCP, ID: 6, Name: "tcp"}
	UDP = Protocol{Kind: ProtocolUDP, ID: 17, Name: "udp"}
)

func (p Protocol) String() string { return p.Name }

// Ports is the source/destination port pair of TCP and UDP packets.
type Ports struct {
	Src uint16
	Dst uint16
}

// ProtoInfo is the protocol specific part of a record. It is one of
// TCPInfo, UDPInfo or UnknownInfo.
type ProtoInfo interface {
	protoInfo()
}

// TCPInfo holds the TCP fields pf logs.
type TCPInfo struct {
	Ports      Ports
	Flags      string
	Seq        string
	Ack        *uint32
	Window     uint32
	Urgent     *uint32
	Options    string
	DataLength int
}

// UDPInfo holds the UDP fields pf logs.
type UDPInfo struct {
	Ports      Ports
	DataLength int
}

// UnknownInfo keeps the undecoded protocol fields as text.
type UnknownInfo struct {
	Text string
}

func (TCPInfo) protoInfo()     {}
func (UDPInfo) protoInfo()     {}
func (UnknownInfo) protoInfo() {}

// PortsOf returns the port pair of info. ok is false for protocols
// without ports.
func PortsOf(info ProtoInfo) (ports Ports, ok bool) {
	switch v := info.(type) {
	case TCPInfo:
		return v.Ports, true
	case UDPInfo:
		return v.Ports, true
	case *TCPInfo:
		return v.Ports, true
	case *UDPInfo:
		return v.Ports, true
	}
	return Ports{}, false
}

// LogRecord is one decoded firewall event. Records are created once by
// the decoder and never mutated after they are appended to the store.
type LogRecord struct {
	Timestamp  time.Time
	Hostname   string
	RuleNumber string
	Anchor     string
	Label      string
	Interface  string
	Reason     string
	Action     Action
	Direction  Direction
	IPVersion  int
	Src        netip.Addr
	Dst        netip.Addr
	Length     int // IP payload length
	Protocol   Protocol
	Payload    ProtoInfo
	RawLine    string
	Source     string // "tcp", "stdin", "file"
}

// SrcPort returns the source port, or false for protocols without ports.
func (r *LogRecord) SrcPort() (uint16, bool) {
	p, ok := PortsOf(r.Payload)
	return p.Src, ok
}

// DstPort returns the destination port, or false for protocols without ports.
func (r *LogRecord) DstPort() (uint16, bool) {
	p, ok := PortsOf(r.Payload)
	return p.Dst, ok
}

// Endpoint formats addr with the port when one is known.
func Endpoint(addr netip.Addr, port uint16, hasPort bool) string {
	if !hasPort {
		return addr.String()
	}
	return netip.AddrPortFrom(addr, port).String()
}
