package filterlog

import (
	"strconv"
	"strings"
	"time"
)

// envelope is the syslog wrapper around a filterlog message.
type envelope struct {
	Timestamp time.Time
	HasTime   bool
	Hostname  string
	AppName   string
	Message   string
}

// splitEnvelope strips an RFC 5424 or RFC 3164 header from line. Lines
// without a "<PRI>" prefix are returned unchanged as the message.
func (d *Decoder) splitEnvelope(line string) (envelope, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "<") {
		return d.splitBSD(line), nil
	}
	end := strings.IndexByte(line, '>')
	if end < 2 || end > 4 {
		return envelope{}, malformed("priority", line)
	}
	if _, err := strconv.Atoi(line[1:end]); err != nil {
		return envelope{}, malformed("priority", line[:end+1])
	}
	rest := line[end+1:]
	if strings.HasPrefix(rest, "1 ") {
		return d.splitRFC5424(rest[2:])
	}
	return d.splitBSD(rest), nil
}

// splitRFC5424 handles "TIMESTAMP HOST APP PROCID MSGID SD MSG".
func (d *Decoder) splitRFC5424(s string) (envelope, error) {
	var env envelope
	header := make([]string, 0, 5)
	for len(header) < 5 {
		tok, rest, ok := strings.Cut(s, " ")
		if !ok {
			return envelope{}, malformed("header", s)
		}
		header = append(header, tok)
		s = rest
	}

	if header[0] != "-" {
		ts, err := time.Parse(time.RFC3339Nano, header[0])
		if err != nil {
			return envelope{}, malformed("timestamp", header[0])
		}
		env.Timestamp, env.HasTime = ts, true
	}
	env.Hostname = nilValue(header[1])
	env.AppName = nilValue(header[2])

	msg, err := skipStructuredData(s)
	if err != nil {
		return envelope{}, err
	}
	env.Message = strings.TrimPrefix(msg, "\ufeff")
	return env, nil
}

// splitBSD handles "Mmm dd hh:mm:ss HOST TAG: MSG". Anything it cannot
// recognise is kept as the message.
func (d *Decoder) splitBSD(s string) envelope {
	env := envelope{Message: s}
	r := d.clock.ParseFromText(s)
	if !r.Found {
		return env
	}
	env.Timestamp, env.HasTime = r.Timestamp, true
	rest := r.Remaining

	if tag, msg, ok := strings.Cut(rest, ": "); ok && !strings.ContainsAny(tag, " ,") {
		env.AppName = trimPID(tag)
		env.Message = msg
		return env
	}
	host, after, ok := strings.Cut(rest, " ")
	if !ok {
		env.Message = rest
		return env
	}
	tag, msg, ok := strings.Cut(after, ": ")
	if !ok || strings.ContainsAny(tag, " ,") {
		// No tag; treat "HOST" as absent and keep the rest.
		env.Message = rest
		return env
	}
	env.Hostname = host
	env.AppName = trimPID(tag)
	env.Message = msg
	return env
}

func trimPID(tag string) string {
	if i := strings.IndexByte(tag, '['); i >= 0 {
		return tag[:i]
	}
	return tag
}

func skipStructuredData(s string) (string, error) {
	if strings.HasPrefix(s, "-") {
		return strings.TrimPrefix(strings.TrimPrefix(s, "-"), " "), nil
	}
	for strings.HasPrefix(s, "[") {
		inQuote := false
		i := 1
		for ; i < len(s); i++ {
			c := s[i]
			if c == '\\' && inQuote {
				i++
				continue
			}
			if c == '"' {
				inQuote = !inQuote
				continue
			}
			if c == ']' && !inQuote {
				break
			}
		}
		if i >= len(s) {
			return "", malformed("structured-data", s)
		}
		s = s[i+1:]
	}
	return strings.TrimPrefix(s, " "), nil
}

func nilValue(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
