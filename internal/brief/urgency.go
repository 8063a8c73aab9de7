package brief

import (
	"strings"
	"time"
)

// Urgency signal weights
const (
	urgencyRecencyShort  = 3 // last message under 2 hours old
	urgencyRecencyDay    = 2 // under 24 hours
	urgencyRecencyRecent = 1 // under 72 hours
	urgencyUnread        = 2
	urgencyImportant     = 2
	urgencyKeyword       = 3
	// MaxUrgencyScore is the cap applied to the summed signals
	MaxUrgencyScore = 10
)

// Subject keywords that indicate time-sensitive threads
var urgentKeywords = []string{
	"urgent", "asap", "immediate", "deadline", "emergency", "critical",
}

// ScoreUrgency computes the 0-10 urgency score for a thread from recency,
// read state, provider labels and subject keywords. Each signal contributes
// independently; the sum is capped at MaxUrgencyScore. Missing fields
// (zero date, empty subject) simply contribute nothing.
func ScoreUrgency(t EmailThread, now time.Time) int {
	score := 0

	if !t.LastMessageDate.IsZero() {
		age := now.Sub(t.LastMessageDate)
		switch {
		case age < 2*time.Hour:
			score += urgencyRecencyShort
		case age < 24*time.Hour:
			score += urgencyRecencyDay
		case age < 72*time.Hour:
			score += urgencyRecencyRecent
		}
	}

	if t.Unread {
		score += urgencyUnread
	}

	if t.Important {
		score += urgencyImportant
	}

	if containsUrgentKeyword(t.Subject) {
		score += urgencyKeyword
	}

	if score > MaxUrgencyScore {
		score = MaxUrgencyScore
	}
	return score
}

// containsUrgentKeyword checks the subject against the urgent keyword set
func containsUrgentKeyword(subject string) bool {
	subject = strings.ToLower(subject)
	for _, keyword := range urgentKeywords {
		if strings.Contains(subject, keyword) {
			return true
		}
	}
	return false
}
