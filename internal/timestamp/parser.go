// Package timestamp recognises the timestamp forms that appear at the
// start of syslog lines and in user time-jump input.
package timestamp

import (
	"strings"
	"time"
)

// Result is the outcome of ParseFromText.
type Result struct {
	Timestamp time.Time
	Found     bool
	// Remaining is the text after the timestamp with leading blanks removed,
	// or the whole input when no timestamp was found.
	Remaining string
}

type layout struct {
	format string
	// width is the number of characters consumed, or 0 when the layout has
	// a variable-length fractional part and the token ends at a blank.
	width    int
	noYear   bool
	timeOnly bool
}

var layouts = []layout{
	{format: time.RFC3339Nano},
	{format: "2006-01-02 15:04:05.999999999", width: 0},
	{format: "2006-01-02 15:04:05,999999999", width: 0},
	{format: "2006-01-02 15:04:05", width: 19},
	{format: time.Stamp, width: len(time.Stamp), noYear: true},
	{format: "15:04:05.999999999", timeOnly: true},
	{format: "15:04:05", width: 8, timeOnly: true},
}

// Parser resolves partial timestamps (no year, no date) against a clock.
type Parser struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the reference clock used to fill in a missing year or date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLocation sets the zone for timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.loc = loc }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFromText looks for a timestamp at the start of text.
func (p *Parser) ParseFromText(text string) Result {
	trimmed := strings.TrimLeft(text, " \t")
	for _, l := range layouts {
		token, rest, ok := cutToken(trimmed, l)
		if !ok {
			continue
		}
		ts, err := time.ParseInLocation(l.format, token, p.loc)
		if err != nil {
			continue
		}
		return Result{
			Timestamp: p.complete(ts, l),
			Found:     true,
			Remaining: strings.TrimLeft(rest, " \t"),
		}
	}
	return Result{Remaining: text}
}

// ParseTimestamp parses s as a whole; trailing text is not allowed.
func (p *Parser) ParseTimestamp(s string) (time.Time, bool) {
	r := p.ParseFromText(strings.TrimSpace(s))
	if !r.Found || r.Remaining != "" {
		return time.Time{}, false
	}
	return r.Timestamp, true
}

// ParseRelative parses "YYYY-MM-DD HH:MM:SS" or "HH:MM:SS". A time of day
// is placed on ref's date in ref's zone.
func (p *Parser) ParseRelative(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, ref.Location()); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation("15:04:05", s, ref.Location()); err == nil {
		y, m, d := ref.Date()
		return time.Date(y, m, d, ts.Hour(), ts.Minute(), ts.Second(), 0, ref.Location()), true
	}
	return time.Time{}, false
}

// Now returns the parser clock in its location.
func (p *Parser) Now() time.Time {
	return p.now().In(p.loc)
}

func (p *Parser) complete(ts time.Time, l layout) time.Time {
	now := p.now().In(p.loc)
	switch {
	case l.noYear:
		ts = time.Date(now.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), p.loc)
		// A December line read in early January belongs to last year.
		if ts.After(now.Add(24 * time.Hour)) {
			ts = ts.AddDate(-1, 0, 0)
		}
	case l.timeOnly:
		y, m, d := now.Date()
		ts = time.Date(y, m, d, ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), p.loc)
	}
	return ts
}

func cutToken(s string, l layout) (token, rest string, ok bool) {
	if l.width > 0 {
		if len(s) < l.width {
			return "", "", false
		}
		if len(s) > l.width && s[l.width] != ' ' && s[l.width] != '\t' {
			return "", "", false
		}
		return s[:l.width], s[l.width:], true
	}
	// Variable width layouts: a date layout with a space spans two fields.
	fields := 1
	if strings.Contains(l.format, " ") {
		fields = 2
	}
	end := 0
	for i := 0; i < fields; i++ {
		next := strings.IndexAny(s[end:], " \t")
		if i < fields-1 {
			if next < 0 {
				return "", "", false
			}
			end += next + 1
			continue
		}
		if next < 0 {
			end = len(s)
		} else {
			end += next
		}
	}
	return s[:end], s[end:], true
}
