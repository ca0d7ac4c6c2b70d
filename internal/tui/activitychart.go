package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

const legendWidth = 16

// renderActivity draws matches per tick as stacked pass/block/reject bars
// with a legend of cumulative totals.
func (m *Model) renderActivity(width int) string {
	var pass, block, reject int
	for _, s := range m.activity {
		pass += s.Pass
		block += s.Block
		reject += s.Reject
	}

	header := "Activity"
	if n := len(m.activity); n > 0 {
		header = fmt.Sprintf("Activity (last tick: %d)", m.activity[n-1].Total())
	}

	chartWidth := width - legendWidth - 6
	if chartWidth < 20 {
		chartWidth = 20
	}
	chart := renderActivityBars(m.activity, chartWidth, chartHeight)

	legendLines := []string{
		legendLine("pass", pass, model.ActionPass),
		legendLine("block", block, model.ActionBlock),
		legendLine("reject", reject, model.ActionReject),
		statusStyle.Render(strings.Repeat("─", legendWidth-2)),
		fmt.Sprintf("%-7s%7d", "total", pass+block+reject),
	}
	for len(legendLines) < chartHeight {
		legendLines = append(legendLines, "")
	}
	legend := lipgloss.NewStyle().Width(legendWidth).Render(strings.Join(legendLines, "\n"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, chart, "  ", legend)
	return sectionStyle.Width(width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, chartTitleStyle.Render(header), body),
	)
}

func legendLine(name string, n int, a model.Action) string {
	return lipgloss.NewStyle().Foreground(actionColor(a)).Render(fmt.Sprintf("%-7s%7d", name, n))
}

// renderActivityBars keeps the newest samples that fit and left-pads with
// empty bars so the chart scrolls from the right.
func renderActivityBars(samples []ActivitySample, width, height int) string {
	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	maxBars := width / 2
	start := 0
	if len(samples) > maxBars {
		start = len(samples) - maxBars
	}
	visible := samples[start:]

	empty := lipgloss.NewStyle().Foreground(ColorGray)
	for i := len(visible); i < maxBars; i++ {
		bc.Push(barchart.BarData{Values: []barchart.BarValue{{Name: "empty", Value: 0, Style: empty}}})
	}
	for _, s := range visible {
		var values []barchart.BarValue
		for _, v := range []struct {
			name  string
			count int
			a     model.Action
		}{
			{"pass", s.Pass, model.ActionPass},
			{"block", s.Block, model.ActionBlock},
			{"reject", s.Reject, model.ActionReject},
		} {
			if v.count == 0 {
				continue
			}
			c := actionColor(v.a)
			values = append(values, barchart.BarValue{
				Name:  v.name,
				Value: float64(v.count),
				Style: lipgloss.NewStyle().Foreground(c).Background(c),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "empty", Value: 0, Style: empty}}
		}
		bc.Push(barchart.BarData{Values: values})
	}

	bc.Draw()
	return bc.View()
}
