package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dayspark/core/internal/brief"
)

var (
	// ErrItemParse indicates a single raw thread or event is malformed.
	// Callers drop that item and continue with the rest of the batch.
	ErrItemParse = errors.New("malformed item")
	// ErrSourceFetch indicates a provider call failed as a whole
	ErrSourceFetch = errors.New("source fetch failed")
)

// EmailSource fetches raw provider-shaped threads for a look-back window
type EmailSource interface {
	FetchThreads(ctx context.Context, hoursBack int) ([]RawThread, error)
}

// CalendarSource fetches raw provider-shaped events for a look-ahead window
type CalendarSource interface {
	FetchEvents(ctx context.Context, hoursAhead int) ([]RawEvent, error)
}

// RawThread is a provider-shaped email thread before validation.
// Timestamps are RFC 3339 strings as providers return them.
type RawThread struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	From         string   `json:"from"`
	Participants []string `json:"participants"`
	Date         string   `json:"date"`
	Unread       bool     `json:"unread"`
	Important    bool     `json:"important"`
	Snippet      string   `json:"snippet"`
}

// RawEvent is a provider-shaped calendar event before validation
type RawEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// ParseThread validates a raw thread and converts it to the engine type.
// A missing id or an unparseable date makes the item malformed.
func ParseThread(accountID uint, raw RawThread) (brief.EmailThread, error) {
	if raw.ID == "" {
		return brief.EmailThread{}, fmt.Errorf("%w: thread missing id", ErrItemParse)
	}

	date, err := time.Parse(time.RFC3339, raw.Date)
	if err != nil {
		return brief.EmailThread{}, fmt.Errorf("%w: thread %s has invalid date %q", ErrItemParse, raw.ID, raw.Date)
	}

	participants := raw.Participants
	if len(participants) == 0 && raw.From != "" {
		participants = []string{raw.From}
	}

	return brief.EmailThread{
		ID:              raw.ID,
		AccountID:       accountID,
		Subject:         raw.Subject,
		From:            raw.From,
		Participants:    participants,
		LastMessageDate: date,
		Unread:          raw.Unread,
		Important:       raw.Important,
		Snippet:         raw.Snippet,
	}, nil
}

// ParseEvent validates a raw event and converts it to the engine type.
// The start must be strictly before the end.
func ParseEvent(accountID uint, raw RawEvent) (brief.CalendarEvent, error) {
	if raw.ID == "" {
		return brief.CalendarEvent{}, fmt.Errorf("%w: event missing id", ErrItemParse)
	}

	start, err := time.Parse(time.RFC3339, raw.Start)
	if err != nil {
		return brief.CalendarEvent{}, fmt.Errorf("%w: event %s has invalid start %q", ErrItemParse, raw.ID, raw.Start)
	}
	end, err := time.Parse(time.RFC3339, raw.End)
	if err != nil {
		return brief.CalendarEvent{}, fmt.Errorf("%w: event %s has invalid end %q", ErrItemParse, raw.ID, raw.End)
	}
	if !start.Before(end) {
		return brief.CalendarEvent{}, fmt.Errorf("%w: event %s start is not before end", ErrItemParse, raw.ID)
	}

	return brief.CalendarEvent{
		ID:          raw.ID,
		AccountID:   accountID,
		Title:       raw.Title,
		Start:       start,
		End:         end,
		Description: raw.Description,
		Location:    raw.Location,
	}, nil
}
