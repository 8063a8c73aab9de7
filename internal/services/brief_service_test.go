package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dayspark/core/internal/cache"
	"github.com/dayspark/core/internal/database"
	"github.com/dayspark/core/internal/database/models"
	"github.com/dayspark/core/internal/sources"
)

var briefTestCounter int64

// fakeEmailSource serves canned threads or a canned error
type fakeEmailSource struct {
	threads []sources.RawThread
	err     error
}

func (f *fakeEmailSource) FetchThreads(ctx context.Context, hoursBack int) ([]sources.RawThread, error) {
	return f.threads, f.err
}

type fakeCalendarSource struct {
	events []sources.RawEvent
	err    error
}

func (f *fakeCalendarSource) FetchEvents(ctx context.Context, hoursAhead int) ([]sources.RawEvent, error) {
	return f.events, f.err
}

// newBriefTestFixture wires a BriefService against an in-memory database
// and a fresh user, with buildSources replaced by the given sets
func newBriefTestFixture(t *testing.T, sets []accountSources) (*BriefService, uint) {
	t.Helper()

	db, err := database.InitializeInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	userService := NewUserService(db)
	username := fmt.Sprintf("brief-test-%d", atomic.AddInt64(&briefTestCounter, 1))
	user, err := userService.CreateUser(username, "test-password", "Brief Tester")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	accountService := NewAccountService(db, []byte("test-encryption-key"))
	settingsService := NewSettingsService(db)

	service := NewBriefService(db, cache.New(nil, time.Minute), accountService, settingsService)
	service.buildSources = func(userID uint, settings *models.UserSettings) ([]accountSources, error) {
		return sets, nil
	}
	return service, user.ID
}

func rawThreadAt(id, subject, from string, at time.Time) sources.RawThread {
	return sources.RawThread{
		ID:      id,
		Subject: subject,
		From:    from,
		Date:    at.Format(time.RFC3339),
	}
}

func TestGenerateBrief_Pipeline(t *testing.T) {
	now := time.Now().UTC()

	email := &fakeEmailSource{threads: []sources.RawThread{
		rawThreadAt("t1", "URGENT: deadline for the audit", "ceo@board.example.com", now.Add(-time.Hour)),
		rawThreadAt("t2", "Lunch next week", "friend@example.com", now.Add(-40*time.Hour)),
		{ID: "", Subject: "broken, no id", Date: now.Format(time.RFC3339)},
	}}
	calendar := &fakeCalendarSource{events: []sources.RawEvent{
		{ID: "e1", Title: "Standup", Start: now.Add(time.Hour).Format(time.RFC3339), End: now.Add(90 * time.Minute).Format(time.RFC3339)},
		{ID: "e2", Title: "Review", Start: now.Add(80 * time.Minute).Format(time.RFC3339), End: now.Add(2 * time.Hour).Format(time.RFC3339)},
	}}

	service, userID := newBriefTestFixture(t, []accountSources{
		{accountID: 1, email: email, calendar: calendar},
	})

	result, err := service.GenerateBrief(context.Background(), userID)
	if err != nil {
		t.Fatalf("GenerateBrief() error = %v", err)
	}
	if result.Stale || result.FromCache {
		t.Errorf("first generation should be fresh, got %+v", result)
	}

	data := result.Data
	if len(data.AllEmails) != 2 {
		t.Fatalf("expected 2 parsed threads (1 malformed skipped), got %d", len(data.AllEmails))
	}
	if data.AllEmails[0].ID != "t1" {
		t.Errorf("urgent thread should rank first, got %q", data.AllEmails[0].ID)
	}
	if data.AllEmails[0].UrgencyScore == 0 {
		t.Error("scoring should have run")
	}
	if data.AllEmails[0].Rationale == "" {
		t.Error("rationale should be populated")
	}
	if len(data.TopEmails) != 2 {
		t.Errorf("top list should hold all %d threads, got %d", 2, len(data.TopEmails))
	}

	if len(data.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(data.Events))
	}
	for _, e := range data.Events {
		if !e.Conflicts {
			t.Errorf("event %q overlaps the other and should be flagged", e.ID)
		}
	}
}

func TestGenerateBrief_SecondCallHitsCache(t *testing.T) {
	now := time.Now().UTC()
	email := &fakeEmailSource{threads: []sources.RawThread{
		rawThreadAt("t1", "Hello", "a@example.com", now),
	}}

	service, userID := newBriefTestFixture(t, []accountSources{{accountID: 1, email: email}})

	first, err := service.GenerateBrief(context.Background(), userID)
	if err != nil {
		t.Fatalf("GenerateBrief() error = %v", err)
	}
	second, err := service.GenerateBrief(context.Background(), userID)
	if err != nil {
		t.Fatalf("GenerateBrief() error = %v", err)
	}
	if !second.FromCache {
		t.Error("second call within TTL should be served from cache")
	}
	if second.Data.ID != first.Data.ID {
		t.Error("cached call should return the same brief")
	}
}

func TestGenerateBrief_PartialFetchFailureTolerated(t *testing.T) {
	now := time.Now().UTC()
	working := &fakeEmailSource{threads: []sources.RawThread{
		rawThreadAt("t1", "Hello", "a@example.com", now),
	}}
	broken := &fakeEmailSource{err: errors.New("imap timeout")}

	service, userID := newBriefTestFixture(t, []accountSources{
		{accountID: 1, email: working},
		{accountID: 2, email: broken},
	})

	result, err := service.GenerateBrief(context.Background(), userID)
	if err != nil {
		t.Fatalf("one healthy source should be enough, got error %v", err)
	}
	if len(result.Data.AllEmails) != 1 {
		t.Errorf("expected the healthy account's thread, got %d threads", len(result.Data.AllEmails))
	}
}

func TestGenerateBrief_AllSourcesFailing(t *testing.T) {
	broken := &fakeEmailSource{err: errors.New("imap timeout")}

	t.Run("no cached copy fails", func(t *testing.T) {
		service, userID := newBriefTestFixture(t, []accountSources{{accountID: 1, email: broken}})

		_, err := service.GenerateBrief(context.Background(), userID)
		if !errors.Is(err, ErrNoBriefAvailable) {
			t.Fatalf("error = %v, want ErrNoBriefAvailable", err)
		}
	})

	t.Run("expired copy is served stale", func(t *testing.T) {
		now := time.Now().UTC()
		flaky := &fakeEmailSource{threads: []sources.RawThread{
			rawThreadAt("t1", "Hello", "a@example.com", now),
		}}
		service, userID := newBriefTestFixture(t, []accountSources{{accountID: 1, email: flaky}})
		// Every entry expires immediately, so the second call always
		// regenerates and the first copy only survives as a stale fallback
		service.cache = cache.New(nil, time.Nanosecond)

		first, err := service.GenerateBrief(context.Background(), userID)
		if err != nil {
			t.Fatalf("initial generation failed: %v", err)
		}

		flaky.err = errors.New("imap timeout")
		flaky.threads = nil

		result, err := service.GenerateBrief(context.Background(), userID)
		if err != nil {
			t.Fatalf("stale fallback should not fail: %v", err)
		}
		if !result.Stale {
			t.Error("result should be flagged stale")
		}
		if result.Data.ID != first.Data.ID {
			t.Error("stale fallback should serve the previously generated brief")
		}
	})
}

func TestGenerateBrief_CacheKeyFollowsWindows(t *testing.T) {
	service, userID := newBriefTestFixture(t, nil)

	settings, err := service.settingsService.GetSettings(userID)
	if err != nil {
		t.Fatal(err)
	}
	before := service.cacheKey(userID, settings)

	narrow := 24
	updated, err := service.settingsService.UpdateSettings(userID, UpdateSettingsInput{EmailWindowHours: &narrow})
	if err != nil {
		t.Fatal(err)
	}
	after := service.cacheKey(userID, updated)

	if before == after {
		t.Error("changing the email window must change the cache key")
	}
}

func TestGenerateBrief_CrossAccountDedup(t *testing.T) {
	now := time.Now().UTC()
	work := &fakeEmailSource{threads: []sources.RawThread{
		{
			ID:           "work-1",
			Subject:      "Budget",
			From:         "alice@example.com",
			Participants: []string{"alice@example.com", "bob@example.com"},
			Date:         now.Add(-2 * time.Hour).Format(time.RFC3339),
		},
	}}
	personal := &fakeEmailSource{threads: []sources.RawThread{
		{
			ID:           "personal-1",
			Subject:      "Re: Budget",
			From:         "alice@example.com",
			Participants: []string{"bob@example.com", "alice@example.com"},
			Date:         now.Add(-time.Hour).Format(time.RFC3339),
			Unread:       true,
		},
	}}

	service, userID := newBriefTestFixture(t, []accountSources{
		{accountID: 1, email: work},
		{accountID: 2, email: personal},
	})

	result, err := service.GenerateBrief(context.Background(), userID)
	if err != nil {
		t.Fatalf("GenerateBrief() error = %v", err)
	}
	if len(result.Data.AllEmails) != 1 {
		t.Fatalf("the same thread in two accounts should merge, got %d", len(result.Data.AllEmails))
	}
	if !result.Data.AllEmails[0].Unread {
		t.Error("unread flag should survive the merge")
	}
}
