package brief

import (
	"sort"
)

// MarkConflicts flags every pair of overlapping events and returns the
// events sorted by start time ascending. Overlap uses half-open interval
// semantics: an event ending exactly when another starts is not a
// conflict. Marking is symmetric; both sides of an overlapping pair are
// flagged.
//
// The pairwise scan is O(n²), which is fine for the per-window event
// counts we fetch (capped at 100). A sweep line would give the same
// result if that cap ever moves.
func MarkConflicts(events []CalendarEvent) []CalendarEvent {
	out := make([]CalendarEvent, len(events))
	copy(out, events)

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if !out[i].End.Equal(out[j].End) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].ID < out[j].ID
	})

	for i := range out {
		out[i].Conflicts = false
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if Overlaps(out[i], out[j]) {
				out[i].Conflicts = true
				out[j].Conflicts = true
			}
		}
	}

	return out
}

// Overlaps reports whether two events' time intervals intersect,
// treating [start, end) as half-open.
func Overlaps(a, b CalendarEvent) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
