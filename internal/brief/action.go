package brief

import (
	"strings"
)

// Phrases that suggest the thread likely needs a reply or follow-up.
// This is a pure containment test; false negatives are acceptable.
var actionCues = []string{
	"please",
	"can you",
	"could you",
	"would you",
	"action required",
	"action needed",
	"confirm",
	"approve",
	"review",
	"respond",
	"reply",
	"let me know",
	"follow up",
	"feedback",
	"meeting",
	"schedule",
	"rsvp",
	"by eod",
	"by end of day",
}

// DetectAction reports whether the snippet text likely requires a
// reply or other action from the user.
func DetectAction(snippet string) bool {
	snippet = strings.ToLower(snippet)
	for _, cue := range actionCues {
		if strings.Contains(snippet, cue) {
			return true
		}
	}
	return false
}
