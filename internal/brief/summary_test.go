package brief

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestBuildRationale(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		thread EmailThread
		want   string
	}{
		{
			name: "all reasons in fixed order",
			thread: EmailThread{
				UrgencyScore:    9,
				Unread:          true,
				ActionRequired:  true,
				LastMessageDate: now.Add(-2 * time.Hour),
			},
			want: "High urgency score, Unread message, Action required, Recent message",
		},
		{
			name:   "unread only",
			thread: EmailThread{Unread: true, LastMessageDate: now.Add(-30 * time.Hour)},
			want:   "Unread message",
		},
		{
			name:   "recent only",
			thread: EmailThread{LastMessageDate: now.Add(-23 * time.Hour)},
			want:   "Recent message",
		},
		{
			name:   "zero date is not recent",
			thread: EmailThread{},
			want:   StandardPriorityRationale,
		},
		{
			name:   "nothing triggered",
			thread: EmailThread{UrgencyScore: 6, LastMessageDate: now.Add(-48 * time.Hour)},
			want:   StandardPriorityRationale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildRationale(tt.thread, now); got != tt.want {
				t.Errorf("BuildRationale() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProperty_RationaleDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	properties.Property("same_thread_same_rationale", prop.ForAll(
		func(urgency, ageHours int, unread, action bool) bool {
			thread := EmailThread{
				UrgencyScore:    urgency,
				Unread:          unread,
				ActionRequired:  action,
				LastMessageDate: now.Add(-time.Duration(ageHours) * time.Hour),
			}
			return BuildRationale(thread, now) == BuildRationale(thread, now)
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("rationale_never_empty", prop.ForAll(
		func(urgency, ageHours int, unread, action bool) bool {
			thread := EmailThread{
				UrgencyScore:    urgency,
				Unread:          unread,
				ActionRequired:  action,
				LastMessageDate: now.Add(-time.Duration(ageHours) * time.Hour),
			}
			return BuildRationale(thread, now) != ""
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestFormatSummary(t *testing.T) {
	generated := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)

	t.Run("full brief", func(t *testing.T) {
		data := &BriefData{
			GeneratedAt: generated,
			Events: []CalendarEvent{
				{
					Title:     "Standup",
					Start:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
					End:       time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC),
					Conflicts: true,
				},
				{
					Title: "1:1 with Sam",
					Start: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
					End:   time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
				},
			},
			TopEmails: []EmailThread{
				{Subject: "Budget approval", Importance: ImportanceHigh, Rationale: "High urgency score, Unread message"},
				{Subject: "Lunch?", Importance: ImportanceLow, Rationale: StandardPriorityRationale},
			},
			AllEmails: make([]EmailThread, 5),
		}

		out := FormatSummary(data)

		if !strings.HasPrefix(out, "Brief for Mon Mar 10 07:30\n") {
			t.Errorf("unexpected header: %q", firstLine(out))
		}
		if !strings.Contains(out, "2 upcoming event(s), 1 with scheduling conflicts:\n") {
			t.Errorf("missing event count line in %q", out)
		}
		if !strings.Contains(out, "- 09:00–09:15 Standup [conflict]\n") {
			t.Errorf("missing conflict-marked event line in %q", out)
		}
		if !strings.Contains(out, "- 14:00–14:30 1:1 with Sam\n") {
			t.Errorf("missing plain event line in %q", out)
		}
		if !strings.Contains(out, "Top 2 of 5 email thread(s):\n") {
			t.Errorf("missing email count line in %q", out)
		}
		if !strings.Contains(out, "1. Budget approval (high: High urgency score, Unread message)\n") {
			t.Errorf("missing rationale line in %q", out)
		}
		if !strings.Contains(out, "2. Lunch? (low)\n") {
			t.Errorf("standard priority threads should omit the rationale, got %q", out)
		}
	})

	t.Run("empty brief", func(t *testing.T) {
		out := FormatSummary(&BriefData{GeneratedAt: generated})
		if !strings.Contains(out, "No upcoming events.\n") {
			t.Errorf("missing empty events line in %q", out)
		}
		if !strings.Contains(out, "No email threads in the window.\n") {
			t.Errorf("missing empty threads line in %q", out)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		data := &BriefData{
			GeneratedAt: generated,
			TopEmails:   []EmailThread{{Subject: "A", Importance: ImportanceMedium}},
			AllEmails:   make([]EmailThread, 1),
		}
		if FormatSummary(data) != FormatSummary(data) {
			t.Error("rendering the same brief twice should produce identical output")
		}
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
