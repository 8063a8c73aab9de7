package brief

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_UrgencyScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	properties.Property("score_always_between_0_and_10", prop.ForAll(
		func(ageHours int, unread, important bool, subject string) bool {
			thread := EmailThread{
				Subject:         subject,
				LastMessageDate: now.Add(-time.Duration(ageHours) * time.Hour),
				Unread:          unread,
				Important:       important,
			}
			score := ScoreUrgency(thread, now)
			return score >= 0 && score <= MaxUrgencyScore
		},
		gen.IntRange(0, 500),
		gen.Bool(),
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.Property("unread_never_lowers_score", prop.ForAll(
		func(ageHours int, important bool, subject string) bool {
			read := EmailThread{
				Subject:         subject,
				LastMessageDate: now.Add(-time.Duration(ageHours) * time.Hour),
				Unread:          false,
				Important:       important,
			}
			unread := read
			unread.Unread = true
			return ScoreUrgency(unread, now) >= ScoreUrgency(read, now)
		},
		gen.IntRange(0, 500),
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.Property("same_thread_same_score", prop.ForAll(
		func(ageHours int, unread, important bool) bool {
			thread := EmailThread{
				Subject:         "status update",
				LastMessageDate: now.Add(-time.Duration(ageHours) * time.Hour),
				Unread:          unread,
				Important:       important,
			}
			return ScoreUrgency(thread, now) == ScoreUrgency(thread, now)
		},
		gen.IntRange(0, 500),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestScoreUrgency_Scenarios(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		thread EmailThread
		want   int
	}{
		{
			name: "urgent unread important recent thread hits the cap",
			thread: EmailThread{
				Subject:         "URGENT: deadline approaching",
				LastMessageDate: now.Add(-1 * time.Hour),
				Unread:          true,
				Important:       true,
			},
			want: 10, // 3 recency + 2 unread + 2 important + 3 keyword, capped
		},
		{
			name: "read thread from yesterday",
			thread: EmailThread{
				Subject:         "weekly report",
				LastMessageDate: now.Add(-20 * time.Hour),
			},
			want: 2,
		},
		{
			name: "old thread with keyword",
			thread: EmailThread{
				Subject:         "critical bug in prod",
				LastMessageDate: now.Add(-100 * time.Hour),
			},
			want: 3,
		},
		{
			name:   "zero date contributes nothing",
			thread: EmailThread{Subject: "hello"},
			want:   0,
		},
		{
			name: "two day old unread thread",
			thread: EmailThread{
				Subject:         "question about invoice",
				LastMessageDate: now.Add(-48 * time.Hour),
				Unread:          true,
			},
			want: 3, // 1 recency + 2 unread
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreUrgency(tt.thread, now); got != tt.want {
				t.Errorf("ScoreUrgency() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProperty_ImportanceTiers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("high_iff_high_urgency_or_vip", prop.ForAll(
		func(urgency int, vip bool) bool {
			sender := "alice@example.com"
			if vip {
				sender = "alice@board.example.com"
			}
			tier := ClassifyImportance(urgency, sender, DefaultVIPDomains)
			wantHigh := urgency >= 7 || vip
			return (tier == ImportanceHigh) == wantHigh
		},
		gen.IntRange(0, 10),
		gen.Bool(),
	))

	properties.Property("tier_always_valid", prop.ForAll(
		func(urgency int, sender string) bool {
			return ClassifyImportance(urgency, sender, nil).IsValid()
		},
		gen.IntRange(0, 10),
		gen.AlphaString(),
	))

	properties.Property("tier_monotonic_in_urgency", prop.ForAll(
		func(urgency int) bool {
			if urgency >= 10 {
				return true
			}
			lower := ClassifyImportance(urgency, "bob@example.com", nil)
			higher := ClassifyImportance(urgency+1, "bob@example.com", nil)
			return higher.Weight() >= lower.Weight()
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

func TestClassifyImportance_Scenarios(t *testing.T) {
	vip := []string{"board.example.com"}

	tests := []struct {
		name    string
		urgency int
		sender  string
		want    Importance
	}{
		{"high urgency", 8, "peer@example.com", ImportanceHigh},
		{"vip sender with low urgency", 1, "ceo@board.example.com", ImportanceHigh},
		{"vip sender in display name form", 2, "CEO <ceo@Board.Example.Com>", ImportanceHigh},
		{"medium urgency", 5, "peer@example.com", ImportanceMedium},
		{"boundary medium", 4, "peer@example.com", ImportanceMedium},
		{"low urgency", 3, "peer@example.com", ImportanceLow},
		{"empty sender", 0, "", ImportanceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyImportance(tt.urgency, tt.sender, vip); got != tt.want {
				t.Errorf("ClassifyImportance(%d, %q) = %s, want %s", tt.urgency, tt.sender, got, tt.want)
			}
		})
	}
}

func TestDetectAction(t *testing.T) {
	tests := []struct {
		snippet string
		want    bool
	}{
		{"Could you review the attached draft?", true},
		{"Please confirm by EOD", true},
		{"Let me know what you think", true},
		{"RSVP for the offsite", true},
		{"FYI, the release went out last night.", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := DetectAction(tt.snippet); got != tt.want {
			t.Errorf("DetectAction(%q) = %v, want %v", tt.snippet, got, tt.want)
		}
	}
}
