package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// detailModal shows every field of one record.
type detailModal struct {
	vp      viewport.Model
	content string
}

func newDetailModal(position, index int, rec *model.LogRecord) *detailModal {
	return &detailModal{
		vp:      viewport.New(0, 0),
		content: formatRecordDetails(position, index, rec),
	}
}

func (d *detailModal) ID() string { return "details" }

func (d *detailModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "q", "i", "enter":
			return true, nil
		}
	}
	var cmd tea.Cmd
	d.vp, cmd = d.vp.Update(msg)
	return false, cmd
}

func (d *detailModal) View(width, height int) string {
	return renderModalFrame(&d.vp, "Record Details", d.content, width, height)
}

// formatRecordDetails lists the record fields one per line.
func formatRecordDetails(position, index int, rec *model.LogRecord) string {
	var b strings.Builder
	field := func(name string, value any) {
		fmt.Fprintf(&b, "%-14s %v\n", name+":", value)
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(actionColor(rec.Action))

	b.WriteString(label.Render(fmt.Sprintf("%s %s on %s", strings.ToUpper(rec.Action.String()), rec.Direction, rec.Interface)))
	b.WriteString("\n\n")

	field("Match", position)
	field("Record", index)
	field("Time", rec.Timestamp.Format("2006-01-02 15:04:05.000 -0700"))
	if rec.Hostname != "" {
		field("Host", rec.Hostname)
	}
	field("Rule", rec.RuleNumber)
	if rec.Anchor != "" {
		field("Anchor", rec.Anchor)
	}
	if rec.Label != "" {
		field("Label", rec.Label)
	}
	field("Reason", rec.Reason)
	field("IP version", rec.IPVersion)
	field("Protocol", fmt.Sprintf("%s (%d)", rec.Protocol.Name, rec.Protocol.ID))
	field("Source", rec.Src)
	field("Destination", rec.Dst)
	field("Length", rec.Length)

	switch p := rec.Payload.(type) {
	case model.TCPInfo:
		field("Source port", p.Ports.Src)
		field("Dest port", p.Ports.Dst)
		field("TCP flags", p.Flags)
		field("Sequence", p.Seq)
		if p.Ack != nil {
			field("Ack", *p.Ack)
		}
		field("Window", p.Window)
		if p.Urgent != nil {
			field("Urgent", *p.Urgent)
		}
		if p.Options != "" {
			field("Options", p.Options)
		}
		field("Data length", p.DataLength)
	case model.UDPInfo:
		field("Source port", p.Ports.Src)
		field("Dest port", p.Ports.Dst)
		field("Data length", p.DataLength)
	case model.UnknownInfo:
		if p.Text != "" {
			field("Details", p.Text)
		}
	}
	if rec.Source != "" {
		field("Input", rec.Source)
	}
	if rec.RawLine != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(rec.RawLine))
		b.WriteString("\n")
	}
	return b.String()
}

// renderModalFrame renders a centred, bordered, scrollable modal.
func renderModalFrame(vp *viewport.Model, title, content string, width, height int) string {
	modalWidth := width - 8
	modalHeight := height - 6
	contentWidth := modalWidth - 4
	contentHeight := modalHeight - 4
	if contentWidth < 10 {
		contentWidth = 10
	}
	if contentHeight < 3 {
		contentHeight = 3
	}

	vp.Width = contentWidth
	vp.Height = contentHeight
	vp.SetContent(lipgloss.NewStyle().Width(contentWidth - 2).Render(content))

	pane := lipgloss.NewStyle().
		Width(contentWidth).
		Height(contentHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		Render(vp.View())

	header := lipgloss.NewStyle().
		Width(contentWidth).
		Foreground(ColorBlue).
		Bold(true).
		Render(title)

	status := statusStyle.Render(strings.Join([]string{"up/down/Wheel: Scroll", "PgUp/PgDn: Page", "ESC: Close"}, " | "))

	modal := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, pane, status))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
