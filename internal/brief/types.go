package brief

import (
	"time"
)

// Importance represents the importance tier of an email thread
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// IsValid checks if the importance tier is valid
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// Weight returns the numeric ranking weight of the tier
func (i Importance) Weight() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// EmailThread represents one email conversation after scoring and classification
type EmailThread struct {
	ID              string     `json:"id"`
	AccountID       uint       `json:"account_id"`
	Subject         string     `json:"subject"`
	From            string     `json:"from"`
	Participants    []string   `json:"participants"`
	LastMessageDate time.Time  `json:"last_message_date"`
	Unread          bool       `json:"unread"`
	Important       bool       `json:"important"` // provider "important" label
	Snippet         string     `json:"snippet"`
	UrgencyScore    int        `json:"urgency_score"` // always clamped to [0,10]
	Importance      Importance `json:"importance"`
	ActionRequired  bool       `json:"action_required"`
	Rationale       string     `json:"rationale,omitempty"`
}

// CalendarEvent represents one calendar event within the brief window
type CalendarEvent struct {
	ID          string    `json:"id"`
	AccountID   uint      `json:"account_id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"` // always strictly after Start
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Conflicts   bool      `json:"conflicts"`
}

// BriefData is the aggregate ranked output for one generation window.
// TopEmails is always a prefix of AllEmails under the same order.
type BriefData struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Events      []CalendarEvent `json:"events"`
	TopEmails   []EmailThread   `json:"top_emails"`
	AllEmails   []EmailThread   `json:"all_emails"`
}

// TopEmailCount is how many ranked threads are surfaced in TopEmails
const TopEmailCount = 3
