package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// View renders the viewer.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}
	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}
	if m.height < 20 || m.width < 60 {
		return "Terminal too small. Resize to at least 60x20."
	}

	sections := []string{
		m.renderTitle(),
		m.renderActivity(m.width),
		m.renderTable(m.width, m.visibleRows()),
		m.renderStatusLine(),
		helpStyle.Render(m.help.View(m.keys)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	left := titleStyle.Render("pfwatch")
	right := statusStyle.Render("filter: " + m.filterDesc)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// table column widths; source and destination share the remainder.
const (
	colTime      = 19
	colAction    = 6
	colInterface = 8
	colDirection = 3
	colProtocol  = 9
)

func (m *Model) renderTable(width, rows int) string {
	inner := width - 4
	endpoint := (inner - colTime - colAction - colInterface - colDirection - colProtocol - 8) / 2
	if endpoint < 12 {
		endpoint = 12
	}

	lines := make([]string, 0, rows+1)
	lines = append(lines, tableHeaderStyle.Render(formatColumns(inner, endpoint,
		"TIME", "ACTION", "IF", "DIR", "PROTO", "SOURCE", "DESTINATION")))

	if m.total == 0 {
		lines = append(lines, statusStyle.Render("waiting for matching records..."))
	}
	for pos := m.top; pos < m.total && pos < m.top+rows; pos++ {
		idx, ok := m.matches.At(pos)
		if !ok {
			break
		}
		rec, ok := m.records.At(idx)
		if !ok {
			break
		}
		lines = append(lines, m.renderRow(rec, pos == m.selected, inner, endpoint))
	}

	return sectionStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRow(rec *model.LogRecord, selected bool, width, endpoint int) string {
	sport, hasPorts := rec.SrcPort()
	dport, _ := rec.DstPort()

	action := fmt.Sprintf("%-*s", colAction, rec.Action.String())
	if !selected {
		action = lipgloss.NewStyle().Foreground(actionColor(rec.Action)).Render(action)
	}
	row := strings.Join([]string{
		fmt.Sprintf("%-*s", colTime, rec.Timestamp.Format("2006-01-02 15:04:05")),
		action,
		pad(rec.Interface, colInterface),
		pad(rec.Direction.String(), colDirection),
		pad(rec.Protocol.Name, colProtocol),
		pad(model.Endpoint(rec.Src, sport, hasPorts), endpoint),
		pad(model.Endpoint(rec.Dst, dport, hasPorts), endpoint),
	}, " ")

	if selected {
		return selectedRowStyle.Width(width).Render(row)
	}
	return row
}

func formatColumns(width, endpoint int, cols ...string) string {
	widths := []int{colTime, colAction, colInterface, colDirection, colProtocol, endpoint, endpoint}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = pad(c, widths[i])
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, " "))
}

// pad truncates or right-pads s to exactly n cells.
func pad(s string, n int) string {
	if lipgloss.Width(s) > n {
		r := []rune(s)
		if n > 1 && len(r) > n-1 {
			return string(r[:n-1]) + "…"
		}
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-lipgloss.Width(s))
}

func (m *Model) renderStatusLine() string {
	if m.jumpActive {
		return m.jumpInput.View()
	}

	mode := "manual"
	if m.follow {
		mode = "follow"
	}
	position := "-"
	if m.total > 0 {
		position = fmt.Sprintf("%d/%d", m.selected+1, m.total)
	}
	parts := []string{
		fmt.Sprintf("records: %d", m.records.Len()),
		fmt.Sprintf("matches: %d", m.total),
		"row: " + position,
		"mode: " + mode,
	}
	if m.metrics != nil {
		parts = append(parts, fmt.Sprintf("parse errors: %d", m.metrics.Stats().ParseErrors))
	}
	line := statusStyle.Render(strings.Join(parts, " | "))
	if m.notice != "" {
		style := statusStyle
		if m.noticeErr {
			style = errorStyle
		}
		line += "  " + style.Render(m.notice)
	}
	return line
}
