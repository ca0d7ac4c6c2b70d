package httpserver

import (
	"time"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// recordView is the JSON shape of a record.
type recordView struct {
	Index      int       `json:"index"`
	Timestamp  time.Time `json:"timestamp"`
	Hostname   string    `json:"hostname,omitempty"`
	Rule       string    `json:"rule,omitempty"`
	Anchor     string    `json:"anchor,omitempty"`
	Label      string    `json:"label,omitempty"`
	Interface  string    `json:"interface"`
	Reason     string    `json:"reason,omitempty"`
	Action     string    `json:"action"`
	Direction  string    `json:"direction"`
	IPVersion  int       `json:"ip_version"`
	Protocol   string    `json:"protocol"`
	ProtocolID int       `json:"protocol_id,omitempty"`
	Src        string    `json:"src"`
	Dst        string    `json:"dst"`
	SrcPort    *uint16   `json:"src_port,omitempty"`
	DstPort    *uint16   `json:"dst_port,omitempty"`
	Length     int       `json:"length"`
	TCP        *tcpView  `json:"tcp,omitempty"`
	Details    string    `json:"details,omitempty"`
	Source     string    `json:"source,omitempty"`
	Raw        string    `json:"raw,omitempty"`
}

type tcpView struct {
	Flags      string  `json:"flags"`
	Seq        string  `json:"seq,omitempty"`
	Ack        *uint32 `json:"ack,omitempty"`
	Window     uint32  `json:"window"`
	Urgent     *uint32 `json:"urgent,omitempty"`
	Options    string  `json:"options,omitempty"`
	DataLength int     `json:"data_length"`
}

func newRecordView(idx int, r *model.LogRecord) recordView {
	v := recordView{
		Index:      idx,
		Timestamp:  r.Timestamp,
		Hostname:   r.Hostname,
		Rule:       r.RuleNumber,
		Anchor:     r.Anchor,
		Label:      r.Label,
		Interface:  r.Interface,
		Reason:     r.Reason,
		Action:     r.Action.String(),
		Direction:  r.Direction.String(),
		IPVersion:  r.IPVersion,
		Protocol:   r.Protocol.Name,
		ProtocolID: r.Protocol.ID,
		Src:        r.Src.String(),
		Dst:        r.Dst.String(),
		Length:     r.Length,
		Source:     r.Source,
		Raw:        r.RawLine,
	}
	if ports, ok := model.PortsOf(r.Payload); ok {
		v.SrcPort, v.DstPort = &ports.Src, &ports.Dst
	}
	switch p := r.Payload.(type) {
	case model.TCPInfo:
		v.TCP = &tcpView{
			Flags:      p.Flags,
			Seq:        p.Seq,
			Ack:        p.Ack,
			Window:     p.Window,
			Urgent:     p.Urgent,
			Options:    p.Options,
			DataLength: p.DataLength,
		}
	case model.UnknownInfo:
		v.Details = p.Text
	}
	return v
}
