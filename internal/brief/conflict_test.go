package brief

import (
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var conflictTestBase = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func eventAt(id string, startMin, endMin int) CalendarEvent {
	return CalendarEvent{
		ID:    id,
		Title: "event " + id,
		Start: conflictTestBase.Add(time.Duration(startMin) * time.Minute),
		End:   conflictTestBase.Add(time.Duration(endMin) * time.Minute),
	}
}

// genEventSlice builds a slice of events with random start offsets and durations.
func genEventSlice() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 1440)).Map(func(starts []int) []CalendarEvent {
		events := make([]CalendarEvent, len(starts))
		for i, s := range starts {
			dur := 15 + (s % 90)
			events[i] = eventAt("ev-"+strconv.Itoa(i), s, s+dur)
		}
		return events
	})
}

func TestProperty_ConflictMarking(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("conflict_flags_match_pairwise_overlap", prop.ForAll(
		func(events []CalendarEvent) bool {
			marked := MarkConflicts(events)
			for i := range marked {
				overlapping := false
				for j := range marked {
					if i != j && Overlaps(marked[i], marked[j]) {
						overlapping = true
						break
					}
				}
				if marked[i].Conflicts != overlapping {
					return false
				}
			}
			return true
		},
		genEventSlice(),
	))

	properties.Property("output_sorted_by_start_time", prop.ForAll(
		func(events []CalendarEvent) bool {
			marked := MarkConflicts(events)
			return sort.SliceIsSorted(marked, func(i, j int) bool {
				return marked[i].Start.Before(marked[j].Start)
			})
		},
		genEventSlice(),
	))

	properties.Property("input_not_mutated", prop.ForAll(
		func(events []CalendarEvent) bool {
			before := make([]CalendarEvent, len(events))
			copy(before, events)
			MarkConflicts(events)
			for i := range events {
				if events[i] != before[i] {
					return false
				}
			}
			return true
		},
		genEventSlice(),
	))

	properties.TestingRun(t)
}

func TestMarkConflicts_Scenarios(t *testing.T) {
	t.Run("overlapping pair both flagged", func(t *testing.T) {
		events := []CalendarEvent{
			eventAt("standup", 9*60, 10*60),
			eventAt("review", 9*60+30, 10*60+30),
		}
		marked := MarkConflicts(events)
		if len(marked) != 2 {
			t.Fatalf("expected 2 events, got %d", len(marked))
		}
		for _, e := range marked {
			if !e.Conflicts {
				t.Errorf("event %q should be flagged as conflicting", e.ID)
			}
		}
	})

	t.Run("back to back events do not conflict", func(t *testing.T) {
		events := []CalendarEvent{
			eventAt("first", 9*60, 10*60),
			eventAt("second", 10*60, 11*60),
		}
		for _, e := range MarkConflicts(events) {
			if e.Conflicts {
				t.Errorf("event %q should not conflict, intervals only touch", e.ID)
			}
		}
	})

	t.Run("containment counts as conflict", func(t *testing.T) {
		events := []CalendarEvent{
			eventAt("allday", 8*60, 18*60),
			eventAt("lunch", 12*60, 13*60),
		}
		for _, e := range MarkConflicts(events) {
			if !e.Conflicts {
				t.Errorf("event %q should be flagged as conflicting", e.ID)
			}
		}
	})

	t.Run("stale flags are recomputed", func(t *testing.T) {
		events := []CalendarEvent{
			eventAt("solo", 9*60, 10*60),
		}
		events[0].Conflicts = true
		marked := MarkConflicts(events)
		if marked[0].Conflicts {
			t.Error("isolated event should have its conflict flag cleared")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := MarkConflicts(nil); len(got) != 0 {
			t.Errorf("expected empty result, got %d events", len(got))
		}
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b CalendarEvent
		want bool
	}{
		{"partial overlap", eventAt("a", 0, 60), eventAt("b", 30, 90), true},
		{"touching", eventAt("a", 0, 60), eventAt("b", 60, 120), false},
		{"disjoint", eventAt("a", 0, 60), eventAt("b", 120, 180), false},
		{"identical", eventAt("a", 0, 60), eventAt("b", 0, 60), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}
