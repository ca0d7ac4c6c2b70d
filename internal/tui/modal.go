package tui

import tea "github.com/charmbracelet/bubbletea"

// Modal is a self-contained overlay that owns its own Update/View
// lifecycle. The topmost modal receives all input and renders full-screen.
type Modal interface {
	// ID returns a unique identifier used to deduplicate pushes.
	ID() string
	// Update processes a message. Return pop=true to close the modal.
	Update(msg tea.Msg) (pop bool, cmd tea.Cmd)
	// View renders the modal content for the given terminal dimensions.
	View(width, height int) string
}

// PushModal pushes a modal onto the stack. Deduplicates by ID.
func (m *Model) PushModal(modal Modal) {
	for _, existing := range m.modals {
		if existing.ID() == modal.ID() {
			return
		}
	}
	m.modals = append(m.modals, modal)
}

// PopModal removes the topmost modal from the stack.
func (m *Model) PopModal() {
	if len(m.modals) > 0 {
		m.modals = m.modals[:len(m.modals)-1]
	}
}

// TopModal returns the topmost modal, or nil if the stack is empty.
func (m *Model) TopModal() Modal {
	if len(m.modals) == 0 {
		return nil
	}
	return m.modals[len(m.modals)-1]
}
