// Package tui renders the match index as a live, scrollable table with a
// per-tick activity chart.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/pfwatch/internal/filter"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
	"github.com/tinytelemetry/pfwatch/internal/timestamp"
)

// maxActivitySamples bounds the activity chart history.
const maxActivitySamples = 240

// Config holds the read handles and settings of the display.
type Config struct {
	Records        *pipeline.Store
	Matches        *pipeline.MatchIndex
	Filter         *filter.Filter
	Metrics        *metrics.Collector
	UpdateInterval time.Duration
	// Parser resolves jump-to-time input. Nil uses the local time zone.
	Parser *timestamp.Parser
}

// ActivitySample counts matches by action for one tick.
type ActivitySample struct {
	Pass   int
	Block  int
	Reject int
}

// Total returns the number of matches in the sample.
func (s ActivitySample) Total() int { return s.Pass + s.Block + s.Reject }

// TickMsg represents periodic updates.
type TickMsg time.Time

// Model is the bubbletea model of the match viewer.
type Model struct {
	records        *pipeline.Store
	matches        *pipeline.MatchIndex
	metrics        *metrics.Collector
	filterDesc     string
	updateInterval time.Duration
	parser         *timestamp.Parser

	width  int
	height int

	keys KeyMap
	help help.Model

	// selected and top are match positions. follow keeps the newest match
	// selected on every tick.
	selected int
	top      int
	follow   bool
	total    int

	modals []Modal

	jumpInput  textinput.Model
	jumpActive bool
	notice     string
	noticeErr  bool

	activity []ActivitySample
	counted  int
}

// New creates the viewer model in follow mode.
func New(cfg Config) *Model {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = model.DefaultUpdateInterval
	}
	if cfg.Parser == nil {
		cfg.Parser = timestamp.NewParser()
	}

	jump := textinput.New()
	jump.Placeholder = "HH:MM:SS or YYYY-MM-DD HH:MM:SS"
	jump.Prompt = "jump to: "
	jump.CharLimit = 32

	return &Model{
		records:        cfg.Records,
		matches:        cfg.Matches,
		metrics:        cfg.Metrics,
		filterDesc:     cfg.Filter.String(),
		updateInterval: cfg.UpdateInterval,
		parser:         cfg.Parser,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		follow:         true,
		jumpInput:      jump,
		activity:       make([]ActivitySample, 0, maxActivitySamples),
	}
}

// Init starts the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tea.EnableMouseCellMotion() },
		m.tick(),
	)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Following reports whether the view tracks the newest match.
func (m *Model) Following() bool { return m.follow }

// Selected returns the selected match position, or -1 when there are none.
func (m *Model) Selected() int {
	if m.total == 0 {
		return -1
	}
	return m.selected
}

// Activity returns a copy of the per-tick samples, oldest first.
func (m *Model) Activity() []ActivitySample {
	return append([]ActivitySample(nil), m.activity...)
}

// selectedRecord returns the store index and record under the cursor.
func (m *Model) selectedRecord() (int, *model.LogRecord, bool) {
	if m.total == 0 {
		return 0, nil, false
	}
	idx, ok := m.matches.At(m.selected)
	if !ok {
		return 0, nil, false
	}
	rec, ok := m.records.At(idx)
	return idx, rec, ok
}
