package brief

import (
	"strings"
	"time"
)

// StandardPriorityRationale is returned when no ranking reason triggered
const StandardPriorityRationale = "Standard priority"

// BuildRationale renders a human-readable explanation of why a thread
// ranked where it did. The reasons appear in a fixed order so the output
// is deterministic and idempotent for the same thread.
func BuildRationale(t EmailThread, now time.Time) string {
	var reasons []string

	if t.UrgencyScore >= highUrgencyThreshold {
		reasons = append(reasons, "High urgency score")
	}
	if t.Unread {
		reasons = append(reasons, "Unread message")
	}
	if t.ActionRequired {
		reasons = append(reasons, "Action required")
	}
	if !t.LastMessageDate.IsZero() && now.Sub(t.LastMessageDate) < 24*time.Hour {
		reasons = append(reasons, "Recent message")
	}

	if len(reasons) == 0 {
		return StandardPriorityRationale
	}
	return strings.Join(reasons, ", ")
}
