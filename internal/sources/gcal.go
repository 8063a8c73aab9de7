package sources

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// maxEventFetch caps how many events one window fetch will pull
const maxEventFetch = 100

// CalendarAPISource is a CalendarSource backed by the Google Calendar API
type CalendarAPISource struct {
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	calendarID  string
}

// NewCalendarAPISource creates a CalendarAPISource for one calendar.
// Token refresh is handled by the oauth2 token source; acquiring the
// initial token is the caller's concern.
func NewCalendarAPISource(oauthConfig *oauth2.Config, token *oauth2.Token, calendarID string) *CalendarAPISource {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarAPISource{
		oauthConfig: oauthConfig,
		token:       token,
		calendarID:  calendarID,
	}
}

// FetchEvents fetches events starting within the next hoursAhead hours
func (s *CalendarAPISource) FetchEvents(ctx context.Context, hoursAhead int) ([]RawEvent, error) {
	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(s.oauthConfig.TokenSource(ctx, s.token)))
	if err != nil {
		return nil, fmt.Errorf("%w: calendar service: %v", ErrSourceFetch, err)
	}

	now := time.Now()
	until := now.Add(time.Duration(hoursAhead) * time.Hour)

	result, err := svc.Events.List(s.calendarID).
		Context(ctx).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(until.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventFetch).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrSourceFetch, err)
	}

	events := make([]RawEvent, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, RawEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Start:       eventTime(item.Start),
			End:         eventTime(item.End),
			Description: item.Description,
			Location:    item.Location,
		})
	}

	return events, nil
}

// eventTime extracts an RFC 3339 instant from a calendar event edge.
// All-day events only carry a date; midnight UTC stands in for those so
// the parse step still sees a valid instant.
func eventTime(edge *calendar.EventDateTime) string {
	if edge == nil {
		return ""
	}
	if edge.DateTime != "" {
		return edge.DateTime
	}
	if edge.Date != "" {
		return edge.Date + "T00:00:00Z"
	}
	return ""
}
