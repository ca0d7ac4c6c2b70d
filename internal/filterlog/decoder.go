// Package filterlog decodes pf/OPNsense filterlog lines, optionally wrapped
// in a syslog envelope, into model.LogRecord values.
package filterlog

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/timestamp"
)

// ErrMalformed is wrapped by every decoding error.
var ErrMalformed = errors.New("malformed filterlog line")

// ErrNotFilterlog is returned for syslog lines from another program.
var ErrNotFilterlog = errors.New("not a filterlog message")

func malformed(field, value string) error {
	if len(value) > 64 {
		value = value[:64] + "..."
	}
	return fmt.Errorf("%w: %s: %q", ErrMalformed, field, value)
}

// Decoder turns raw lines into records. It is safe for concurrent use.
type Decoder struct {
	clock *timestamp.Parser
	now   func() time.Time
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock sets the clock used for BSD timestamps without a year and for
// lines that carry no timestamp at all.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	d.clock = timestamp.NewParser(timestamp.WithClock(d.now))
	return d
}

// Decode parses one line. Lines tagged by a program other than filterlog
// return ErrNotFilterlog.
func (d *Decoder) Decode(line string) (*model.LogRecord, error) {
	env, err := d.splitEnvelope(line)
	if err != nil {
		return nil, err
	}
	if env.AppName != "" && env.AppName != "filterlog" {
		return nil, fmt.Errorf("%w: %s", ErrNotFilterlog, env.AppName)
	}

	rec := &model.LogRecord{
		Hostname: env.Hostname,
		RawLine:  line,
	}
	if env.HasTime {
		rec.Timestamp = env.Timestamp
	} else {
		rec.Timestamp = d.now()
	}
	if err := decodeBody(strings.TrimSpace(env.Message), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// decodeBody parses the CSV body:
//
//	rule,subrule,anchor,label,interface,reason,action,dir,ipver,<ip fields>,<proto fields>
func decodeBody(body string, rec *model.LogRecord) error {
	f := strings.Split(body, ",")
	if len(f) < 9 {
		return malformed("fields", body)
	}

	rec.RuleNumber = f[0]
	rec.Anchor = f[2]
	rec.Label = f[3]
	rec.Interface = strings.ToLower(f[4])
	rec.Reason = f[5]

	var err error
	if rec.Action, err = model.ParseAction(f[6]); err != nil {
		return malformed("action", f[6])
	}
	if rec.Direction, err = model.ParseDirection(f[7]); err != nil {
		return malformed("direction", f[7])
	}

	var rest []string
	switch f[8] {
	case "4":
		rest, err = decodeIPv4(f[9:], rec)
	case "6":
		rest, err = decodeIPv6(f[9:], rec)
	default:
		return malformed("ipversion", f[8])
	}
	if err != nil {
		return err
	}

	switch rec.Protocol.Kind {
	case model.ProtocolTCP:
		rec.Payload, err = decodeTCP(rest)
	case model.ProtocolUDP:
		rec.Payload, err = decodeUDP(rest)
	default:
		rec.Payload = model.UnknownInfo{Text: strings.Join(rest, ",")}
	}
	return err
}

// tos,ecn,ttl,id,offset,flags,protoid,protoname,length,src,dst
func decodeIPv4(f []string, rec *model.LogRecord) ([]string, error) {
	if len(f) < 11 {
		return nil, malformed("ipv4 fields", strings.Join(f, ","))
	}
	rec.IPVersion = 4
	id, err := strconv.Atoi(f[6])
	if err != nil {
		return nil, malformed("protoid", f[6])
	}
	rec.Protocol = model.ProtocolFromID(id, f[7])
	if err := decodeAddrs(f[8], f[9], f[10], rec); err != nil {
		return nil, err
	}
	return f[11:], nil
}

// class,flowlabel,hoplimit,protoname,protoid,length,src,dst
func decodeIPv6(f []string, rec *model.LogRecord) ([]string, error) {
	if len(f) < 8 {
		return nil, malformed("ipv6 fields", strings.Join(f, ","))
	}
	rec.IPVersion = 6
	id, err := strconv.Atoi(f[4])
	if err != nil {
		return nil, malformed("protoid", f[4])
	}
	rec.Protocol = model.ProtocolFromID(id, f[3])
	if err := decodeAddrs(f[5], f[6], f[7], rec); err != nil {
		return nil, err
	}
	return f[8:], nil
}

func decodeAddrs(length, src, dst string, rec *model.LogRecord) error {
	n, err := strconv.Atoi(length)
	if err != nil {
		return malformed("length", length)
	}
	rec.Length = n
	if rec.Src, err = netip.ParseAddr(src); err != nil {
		return malformed("src", src)
	}
	if rec.Dst, err = netip.ParseAddr(dst); err != nil {
		return malformed("dst", dst)
	}
	return nil
}

func decodePorts(f []string) (model.Ports, error) {
	src, err := strconv.ParseUint(f[0], 10, 16)
	if err != nil {
		return model.Ports{}, malformed("srcport", f[0])
	}
	dst, err := strconv.ParseUint(f[1], 10, 16)
	if err != nil {
		return model.Ports{}, malformed("dstport", f[1])
	}
	return model.Ports{Src: uint16(src), Dst: uint16(dst)}, nil
}

// srcport,dstport,datalen,tcpflags,seq,ack,window,urg,options
func decodeTCP(f []string) (model.ProtoInfo, error) {
	if len(f) < 3 {
		return nil, malformed("tcp fields", strings.Join(f, ","))
	}
	ports, err := decodePorts(f)
	if err != nil {
		return nil, err
	}
	info := model.TCPInfo{Ports: ports}
	if info.DataLength, err = strconv.Atoi(f[2]); err != nil {
		return nil, malformed("datalen", f[2])
	}
	field := func(i int) string {
		if i < len(f) {
			return f[i]
		}
		return ""
	}
	info.Flags = field(3)
	info.Seq = field(4)
	if info.Ack, err = optionalUint32("ack", field(5)); err != nil {
		return nil, err
	}
	if w := field(6); w != "" {
		v, err := strconv.ParseUint(w, 10, 32)
		if err != nil {
			return nil, malformed("window", w)
		}
		info.Window = uint32(v)
	}
	if info.Urgent, err = optionalUint32("urg", field(7)); err != nil {
		return nil, err
	}
	if len(f) > 8 {
		info.Options = strings.Join(f[8:], ",")
	}
	return info, nil
}

// srcport,dstport,datalen
func decodeUDP(f []string) (model.ProtoInfo, error) {
	if len(f) < 3 {
		return nil, malformed("udp fields", strings.Join(f, ","))
	}
	ports, err := decodePorts(f)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(f[2])
	if err != nil {
		return nil, malformed("datalen", f[2])
	}
	return model.UDPInfo{Ports: ports, DataLength: n}, nil
}

func optionalUint32(field, s string) (*uint32, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, malformed(field, s)
	}
	u := uint32(v)
	return &u, nil
}
