package tui

import (
	"sort"
	"time"
)

// chartHeight is the number of rows of the activity bar chart.
const chartHeight = 6

// visibleRows is the number of table rows that fit on screen.
func (m *Model) visibleRows() int {
	// title, chart block (borders + title + bars), table header,
	// table borders, status line, help line.
	rows := m.height - 1 - (chartHeight + 3) - 1 - 2 - 1 - 1
	if rows < 1 {
		return 1
	}
	return rows
}

// moveSelection moves the cursor by delta rows and leaves follow mode.
func (m *Model) moveSelection(delta int) {
	if m.total == 0 {
		return
	}
	m.follow = false
	m.selected += delta
	m.clampSelection()
}

func (m *Model) selectFirst() {
	m.selected = 0
	m.top = 0
}

func (m *Model) selectLast() {
	if m.total == 0 {
		m.selected, m.top = 0, 0
		return
	}
	m.selected = m.total - 1
	m.ensureVisible()
}

func (m *Model) clampSelection() {
	if m.selected >= m.total {
		m.selected = m.total - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.ensureVisible()
}

// ensureVisible scrolls the table so the selected row is on screen.
func (m *Model) ensureVisible() {
	rows := m.visibleRows()
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+rows {
		m.top = m.selected - rows + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

// jumpTo selects the match closest in time to target. It reports false
// when there are no matches.
func (m *Model) jumpTo(target time.Time) bool {
	indices := m.matches.Snapshot()
	records := m.records.Snapshot()
	pos := closestMatch(len(indices), func(i int) time.Time {
		return records[indices[i]].Timestamp
	}, target)
	if pos < 0 {
		return false
	}
	m.total = len(indices)
	m.follow = false
	m.selected = pos
	m.top = pos
	m.ensureVisible()
	return true
}

// closestMatch returns the position whose time is nearest to target,
// preferring the first of equal timestamps. Positions are assumed to be in
// roughly ascending time order. It returns -1 when n is zero.
func closestMatch(n int, at func(int) time.Time, target time.Time) int {
	if n == 0 {
		return -1
	}
	firstOf := func(i int) int {
		for i > 0 && at(i-1).Equal(at(i)) {
			i--
		}
		return i
	}

	i := sort.Search(n, func(i int) bool { return !at(i).Before(target) })
	if i >= n {
		i = n - 1
	}
	i = firstOf(i)
	if i > 0 {
		lower := i - 1
		if absDuration(target.Sub(at(lower))) < absDuration(target.Sub(at(i))) {
			i = firstOf(lower)
		}
	}
	return i
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
