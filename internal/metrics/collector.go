// Package metrics counts ingestion and filtering activity and exports the
// counters in the Prometheus text format.
package metrics

import (
	"sync/atomic"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// Collector holds process-wide counters. All methods are safe for
// concurrent use and a nil *Collector ignores updates.
type Collector struct {
	linesReceived atomic.Uint64
	parseErrors   atomic.Uint64
	recordsStored atomic.Uint64
	drains        atomic.Uint64
	matched       [3]atomic.Uint64 // indexed by model.Action
	mirrorRows    atomic.Uint64
	mirrorErrors  atomic.Uint64
}

// NewCollector returns a zeroed collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) IncLines() {
	if c != nil {
		c.linesReceived.Add(1)
	}
}

func (c *Collector) IncParseError() {
	if c != nil {
		c.parseErrors.Add(1)
	}
}

func (c *Collector) IncStored() {
	if c != nil {
		c.recordsStored.Add(1)
	}
}

func (c *Collector) IncDrain() {
	if c != nil {
		c.drains.Add(1)
	}
}

// IncMatched counts one record added to the match index.
func (c *Collector) IncMatched(a model.Action) {
	if c == nil || int(a) < 0 || int(a) >= len(c.matched) {
		return
	}
	c.matched[a].Add(1)
}

func (c *Collector) AddMirrorRows(n int) {
	if c != nil && n > 0 {
		c.mirrorRows.Add(uint64(n))
	}
}

func (c *Collector) IncMirrorError() {
	if c != nil {
		c.mirrorErrors.Add(1)
	}
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	LinesReceived uint64 `json:"lines_received"`
	ParseErrors   uint64 `json:"parse_errors"`
	RecordsStored uint64 `json:"records_stored"`
	Drains        uint64 `json:"drains"`
	MatchedPass   uint64 `json:"matched_pass"`
	MatchedBlock  uint64 `json:"matched_block"`
	MatchedReject uint64 `json:"matched_reject"`
	MirrorRows    uint64 `json:"mirror_rows"`
	MirrorErrors  uint64 `json:"mirror_errors"`
}

// Matched returns the total number of matched records.
func (s Stats) Matched() uint64 {
	return s.MatchedPass + s.MatchedBlock + s.MatchedReject
}

// Stats returns the current counter values.
func (c *Collector) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		LinesReceived: c.linesReceived.Load(),
		ParseErrors:   c.parseErrors.Load(),
		RecordsStored: c.recordsStored.Load(),
		Drains:        c.drains.Load(),
		MatchedPass:   c.matched[model.ActionPass].Load(),
		MatchedBlock:  c.matched[model.ActionBlock].Load(),
		MatchedReject: c.matched[model.ActionReject].Load(),
		MirrorRows:    c.mirrorRows.Load(),
		MirrorErrors:  c.mirrorErrors.Load(),
	}
}
