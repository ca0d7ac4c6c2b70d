package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

// pf spells some protocols differently from the IANA keyword list.
var protocolNames = map[string]layers.IPProtocol{
	"hopopt":     layers.IPProtocolIPv6HopByHop,
	"icmp":       layers.IPProtocolICMPv4,
	"igmp":       layers.IPProtocolIGMP,
	"ipencap":    layers.IPProtocolIPv4,
	"ipv4":       layers.IPProtocolIPv4,
	"tcp":        layers.IPProtocolTCP,
	"udp":        layers.IPProtocolUDP,
	"ipv6":       layers.IPProtocolIPv6,
	"ipv6-route": layers.IPProtocolIPv6Routing,
	"ipv6-frag":  layers.IPProtocolIPv6Fragment,
	"gre":        layers.IPProtocolGRE,
	"esp":        layers.IPProtocolESP,
	"ah":         layers.IPProtocolAH,
	"ipv6-icmp":  layers.IPProtocolICMPv6,
	"icmp6":      layers.IPProtocolICMPv6,
	"ipv6-nonxt": layers.IPProtocolNoNextHeader,
	"ipv6-opts":  layers.IPProtocolIPv6Destination,
	"ospf":       layers.IPProtocolOSPF,
	"ipip":       layers.IPProtocolIPIP,
	"etherip":    layers.IPProtocolEtherIP,
	"carp":       layers.IPProtocolVRRP,
	"vrrp":       layers.IPProtocolVRRP,
	"sctp":       layers.IPProtocolSCTP,
	"udplite":    layers.IPProtocolUDPLite,
	"pfsync":     layers.IPProtocol(240),
}

// OtherProtocol builds a protocol tag for anything that is not TCP or UDP.
func OtherProtocol(id int, name string) Protocol {
	return Protocol{Kind: ProtocolOther, ID: id, Name: strings.ToLower(name)}
}

// ProtocolFromID resolves an IP protocol number. name is the spelling
// found in the log and wins over the generic one when present.
func ProtocolFromID(id int, name string) Protocol {
	switch id {
	case int(layers.IPProtocolTCP):
		return TCP
	case int(layers.IPProtocolUDP):
		return UDP
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" && id >= 0 && id <= 255 {
		name = strings.ToLower(layers.IPProtocol(id).String())
	}
	return OtherProtocol(id, name)
}

// ParseProtocol accepts a protocol name as pf logs it ("tcp", "icmp",
// "ipv6-icmp", ...) or a decimal protocol number.
func ParseProtocol(s string) (Protocol, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Protocol{}, fmt.Errorf("empty protocol")
	}
	if p, ok := protocolNames[key]; ok {
		return ProtocolFromID(int(p), key), nil
	}
	if id, err := strconv.ParseUint(key, 10, 8); err == nil {
		return ProtocolFromID(int(id), ""), nil
	}
	return Protocol{}, fmt.Errorf("unknown protocol %q", s)
}

// Matches reports whether two protocol tags name the same protocol.
// TCP and UDP compare by kind, everything else by number when both
// sides know it and by name otherwise.
func (p Protocol) Matches(other Protocol) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.Kind != ProtocolOther {
		return true
	}
	if p.ID > 0 && other.ID > 0 {
		return p.ID == other.ID
	}
	return p.Name == other.Name
}
