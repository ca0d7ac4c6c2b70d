package model

import (
	"net/netip"
	"testing"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Action
	}{
		{"pass", ActionPass},
		{"Block", ActionBlock},
		{" REJECT ", ActionReject},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseAction(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseAction("drop"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	if d, err := ParseDirection("out"); err != nil || d != DirectionOut {
		t.Fatalf("ParseDirection(out) = %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestPortsOf(t *testing.T) {
	t.Parallel()

	tcp := TCPInfo{Ports: Ports{Src: 1234, Dst: 443}}
	if p, ok := PortsOf(tcp); !ok || p.Dst != 443 {
		t.Fatalf("PortsOf(tcp) = %+v, %v", p, ok)
	}
	if p, ok := PortsOf(&UDPInfo{Ports: Ports{Src: 53, Dst: 5353}}); !ok || p.Src != 53 {
		t.Fatalf("PortsOf(*udp) = %+v, %v", p, ok)
	}
	if _, ok := PortsOf(UnknownInfo{Text: "datalength=8"}); ok {
		t.Fatal("unknown payload should have no ports")
	}
	if _, ok := PortsOf(nil); ok {
		t.Fatal("nil payload should have no ports")
	}
}

func TestRecordPortsAndEndpoint(t *testing.T) {
	t.Parallel()

	rec := LogRecord{
		Src:     netip.MustParseAddr("10.0.0.1"),
		Dst:     netip.MustParseAddr("2001:db8::1"),
		Payload: UDPInfo{Ports: Ports{Src: 5000, Dst: 53}},
	}
	sp, ok := rec.SrcPort()
	if !ok || sp != 5000 {
		t.Fatalf("SrcPort() = %d, %v", sp, ok)
	}
	dp, _ := rec.DstPort()
	if got := Endpoint(rec.Dst, dp, true); got != "[2001:db8::1]:53" {
		t.Fatalf("Endpoint = %q", got)
	}
	if got := Endpoint(rec.Src, 0, false); got != "10.0.0.1" {
		t.Fatalf("Endpoint without port = %q", got)
	}
}
