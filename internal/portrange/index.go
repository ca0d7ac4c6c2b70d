package portrange

import "sort"

type entry struct {
	start uint16
	end   uint16
}

// Index maps range starts to range ends over the 16-bit port space.
//
// Contains finds the entry with the largest start not above the port and
// then checks the port against that entry's end only. Overlapping ranges
// are neither merged nor resolved, so a wide range can be hidden by a
// narrower one that starts later:
//
//	insert 80-443, insert 100-110
//	Contains(105) == true   (nearest start 100, 105 <= 110)
//	Contains(200) == false  (nearest start 100, 200 > 110)
//
// Inserting a start that already exists replaces its end.
type Index struct {
	entries []entry // sorted by start, starts unique
}

// InsertSingle adds one port.
func (x *Index) InsertSingle(port uint16) {
	x.InsertRange(port, port)
}

// InsertRange adds [start, end]. The bounds are stored as given: an entry
// with start > end matches no port, yet it still shadows earlier ranges for
// ports at or above its start.
func (x *Index) InsertRange(start, end uint16) {
	i := sort.Search(len(x.entries), func(i int) bool { return x.entries[i].start >= start })
	if i < len(x.entries) && x.entries[i].start == start {
		x.entries[i].end = end
		return
	}
	x.entries = append(x.entries, entry{})
	copy(x.entries[i+1:], x.entries[i:])
	x.entries[i] = entry{start: start, end: end}
}

// Insert adds a parsed spec.
func (x *Index) Insert(s Spec) {
	x.InsertRange(s.Start, s.End)
}

// Contains reports whether port passes the nearest-start bound check.
func (x *Index) Contains(port uint16) bool {
	// First entry whose start is above port; the one before it is the
	// nearest start <= port.
	i := sort.Search(len(x.entries), func(i int) bool { return x.entries[i].start > port })
	if i == 0 {
		return false
	}
	return port <= x.entries[i-1].end
}

// Empty reports whether nothing has been inserted. An empty index is a
// wildcard for the composite filter, not "matches nothing".
func (x *Index) Empty() bool { return len(x.entries) == 0 }

// Len returns the number of distinct starts.
func (x *Index) Len() int { return len(x.entries) }
