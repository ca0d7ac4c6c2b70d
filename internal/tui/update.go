package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureVisible()

	case TickMsg:
		m.refresh()
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.TopModal() != nil || m.jumpActive {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveSelection(-1)
		case tea.MouseButtonWheelDown:
			m.moveSelection(1)
		}
	}
	return m, nil
}

// refresh picks up matches published since the previous tick.
func (m *Model) refresh() {
	n := m.matches.Len()
	m.sampleActivity(n)
	m.total = n
	if m.follow {
		m.selectLast()
		return
	}
	m.clampSelection()
}

// sampleActivity counts the actions of matches [counted, n) as one sample.
func (m *Model) sampleActivity(n int) {
	var s ActivitySample
	if n > m.counted {
		for _, idx := range m.matches.Range(m.counted, n-m.counted) {
			rec, ok := m.records.At(idx)
			if !ok {
				continue
			}
			switch rec.Action {
			case model.ActionPass:
				s.Pass++
			case model.ActionBlock:
				s.Block++
			case model.ActionReject:
				s.Reject++
			}
		}
		m.counted = n
	}
	m.activity = append(m.activity, s)
	if over := len(m.activity) - maxActivitySamples; over > 0 {
		m.activity = append(m.activity[:0], m.activity[over:]...)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}

	if m.jumpActive {
		return m.handleJumpKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.PushModal(newHelpModal(m.keys))
	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.visibleRows())
	case key.Matches(msg, m.keys.Home):
		m.follow = false
		m.selectFirst()
	case key.Matches(msg, m.keys.End):
		m.follow = true
		m.total = m.matches.Len()
		m.selectLast()
	case key.Matches(msg, m.keys.Inspect):
		if idx, rec, ok := m.selectedRecord(); ok {
			m.PushModal(newDetailModal(m.selected, idx, rec))
		}
	case key.Matches(msg, m.keys.JumpTime):
		m.jumpActive = true
		m.jumpInput.SetValue("")
		return m, m.jumpInput.Focus()
	}
	return m, nil
}

func (m *Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeJump()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		input := m.jumpInput.Value()
		m.closeJump()
		m.jumpToInput(input)
		return m, nil
	}
	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

func (m *Model) closeJump() {
	m.jumpActive = false
	m.jumpInput.Blur()
}

func (m *Model) jumpToInput(input string) {
	ref := m.parser.Now()
	if _, rec, ok := m.selectedRecord(); ok {
		ref = rec.Timestamp
	}
	target, ok := m.parser.ParseRelative(input, ref)
	if !ok {
		m.setNotice("cannot parse time "+quote(input), true)
		return
	}
	if !m.jumpTo(target) {
		m.setNotice("no matched records", true)
		return
	}
	m.setNotice("jumped to "+target.Format("2006-01-02 15:04:05"), false)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func quote(s string) string { return "\"" + s + "\"" }
