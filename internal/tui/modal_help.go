package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type helpModal struct {
	vp   viewport.Model
	keys KeyMap
	help help.Model
}

func newHelpModal(keys KeyMap) *helpModal {
	h := help.New()
	h.ShowAll = true
	return &helpModal{vp: viewport.New(0, 0), keys: keys, help: h}
}

func (h *helpModal) ID() string { return "help" }

func (h *helpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "q", "?":
			return true, nil
		}
	}
	var cmd tea.Cmd
	h.vp, cmd = h.vp.Update(msg)
	return false, cmd
}

func (h *helpModal) View(width, height int) string {
	h.help.Width = width - 16
	content := h.help.View(h.keys) + "\n\n" +
		"Jump to time accepts HH:MM:SS on the selected record's date\n" +
		"or a full YYYY-MM-DD HH:MM:SS. The nearest match is selected."
	return renderModalFrame(&h.vp, "Help", content, width, height)
}
