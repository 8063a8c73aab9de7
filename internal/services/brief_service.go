package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	calendarapi "google.golang.org/api/calendar/v3"
	"gorm.io/gorm"

	"github.com/dayspark/core/internal/brief"
	"github.com/dayspark/core/internal/cache"
	"github.com/dayspark/core/internal/database/models"
	"github.com/dayspark/core/internal/sources"
)

var (
	// ErrNoBriefAvailable indicates generation failed and no cached copy exists
	ErrNoBriefAvailable = errors.New("brief generation failed and no cached brief is available")
)

// BriefResult is a generated or cached brief plus provenance flags
type BriefResult struct {
	Data        *brief.BriefData `json:"data"`
	FromCache   bool             `json:"from_cache"`
	Stale       bool             `json:"stale"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// accountSources bundles the data sources built for one linked account.
// Either source may be nil when the account is not configured for it.
type accountSources struct {
	accountID uint
	email     sources.EmailSource
	calendar  sources.CalendarSource
}

// BriefService orchestrates brief generation: it fetches from every
// enabled linked account, normalizes and deduplicates the results, runs
// the scoring pipeline and serves the assembled brief through the TTL
// cache.
type BriefService struct {
	db              *gorm.DB
	cache           *cache.Cache
	accountService  *AccountService
	settingsService *SettingsService
	logService      *LogService

	// buildSources is swappable for tests
	buildSources func(userID uint, settings *models.UserSettings) ([]accountSources, error)
	now          func() time.Time
}

// NewBriefService creates a new BriefService instance
func NewBriefService(db *gorm.DB, briefCache *cache.Cache, accountService *AccountService, settingsService *SettingsService) *BriefService {
	s := &BriefService{
		db:              db,
		cache:           briefCache,
		accountService:  accountService,
		settingsService: settingsService,
		logService:      NewLogService(db),
		now:             time.Now,
	}
	s.buildSources = s.defaultSources
	return s
}

// cacheKey identifies one user's brief for one pair of fetch windows.
// Changing the windows in settings changes the key, so a brief built
// for the old windows never serves the new ones.
func (s *BriefService) cacheKey(userID uint, settings *models.UserSettings) string {
	return fmt.Sprintf("brief:%d:%d:%d", userID, settings.EmailWindowHours, settings.CalendarWindowHours)
}

// GenerateBrief returns the user's brief, serving from cache when a
// fresh copy exists. When generation fails and an expired copy is still
// around, the expired copy is returned with Stale set rather than
// failing the request.
func (s *BriefService) GenerateBrief(ctx context.Context, userID uint) (*BriefResult, error) {
	started := s.now()

	settings, err := s.settingsService.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	key := s.cacheKey(userID, settings)

	data, fromCache, err := s.cache.GetOrGenerate(ctx, key, func(genCtx context.Context) (*brief.BriefData, error) {
		return s.generate(genCtx, userID, settings)
	})
	if err != nil {
		if stale, ts, ok := s.cache.Stale(key); ok {
			s.logService.LogWarn(userID, models.LogModuleBrief, "generate", "Serving stale brief after generation failure", BriefGenerationDetails{
				CacheKey: key,
				Stale:    true,
				ErrorMsg: err.Error(),
			})
			return &BriefResult{Data: stale, FromCache: true, Stale: true, GeneratedAt: ts}, nil
		}
		s.logService.LogError(userID, models.LogModuleBrief, "generate", "Brief generation failed", BriefGenerationDetails{
			CacheKey: key,
			ErrorMsg: err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNoBriefAvailable, err)
	}

	s.logService.LogInfo(userID, models.LogModuleBrief, "generate", "Brief served", BriefGenerationDetails{
		CacheKey:    key,
		ThreadCount: len(data.AllEmails),
		EventCount:  len(data.Events),
		FromCache:   fromCache,
		DurationMs:  s.now().Sub(started).Milliseconds(),
	})

	return &BriefResult{Data: data, FromCache: fromCache, GeneratedAt: data.GeneratedAt}, nil
}

// InvalidateBrief drops the cached brief so the next request regenerates
func (s *BriefService) InvalidateBrief(userID uint) error {
	settings, err := s.settingsService.GetSettings(userID)
	if err != nil {
		return err
	}
	s.cache.Invalidate(s.cacheKey(userID, settings))
	s.logService.LogInfo(userID, models.LogModuleCache, "invalidate", "Brief cache invalidated", nil)
	return nil
}

// generate fetches, normalizes, deduplicates, scores and ranks. Fetches
// run concurrently per account; a single failing account is tolerated
// as long as any source delivered, but when every fetch fails the whole
// generation fails so the caller can fall back to a stale copy.
func (s *BriefService) generate(ctx context.Context, userID uint, settings *models.UserSettings) (*brief.BriefData, error) {
	sourceSets, err := s.buildSources(userID, settings)
	if err != nil {
		return nil, err
	}

	var (
		mu         sync.Mutex
		rawThreads []rawThreadWithAccount
		rawEvents  []rawEventWithAccount
		fetchErrs  []error
		attempts   int
	)

	g, fetchCtx := errgroup.WithContext(ctx)
	for _, set := range sourceSets {
		set := set
		if set.email != nil {
			attempts++
			g.Go(func() error {
				items, err := set.email.FetchThreads(fetchCtx, settings.EmailWindowHours)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fetchErrs = append(fetchErrs, fmt.Errorf("account %d email: %w", set.accountID, err))
					return nil
				}
				for _, item := range items {
					rawThreads = append(rawThreads, rawThreadWithAccount{accountID: set.accountID, raw: item})
				}
				return nil
			})
		}
		if set.calendar != nil {
			attempts++
			g.Go(func() error {
				items, err := set.calendar.FetchEvents(fetchCtx, settings.CalendarWindowHours)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fetchErrs = append(fetchErrs, fmt.Errorf("account %d calendar: %w", set.accountID, err))
					return nil
				}
				for _, item := range items {
					rawEvents = append(rawEvents, rawEventWithAccount{accountID: set.accountID, raw: item})
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if attempts > 0 && len(fetchErrs) == attempts {
		return nil, errors.Join(fetchErrs...)
	}
	for _, ferr := range fetchErrs {
		s.logService.LogWarn(userID, models.LogModuleSource, "fetch", "Source fetch failed, continuing with remaining sources", map[string]interface{}{
			"error": ferr.Error(),
		})
	}

	threads, skippedThreads := parseThreads(rawThreads)
	events, skippedEvents := parseEvents(rawEvents)
	if skippedThreads > 0 || skippedEvents > 0 {
		s.logService.LogWarn(userID, models.LogModuleSource, "parse", "Skipped malformed source items", BriefGenerationDetails{
			SkippedThreads: skippedThreads,
			SkippedEvents:  skippedEvents,
		})
	}

	now := s.now()
	vipDomains := s.settingsService.VIPDomainList(settings)

	threads = brief.DedupThreads(threads)
	for i := range threads {
		threads[i].UrgencyScore = brief.ScoreUrgency(threads[i], now)
		threads[i].Importance = brief.ClassifyImportance(threads[i].UrgencyScore, threads[i].From, vipDomains)
		threads[i].ActionRequired = brief.DetectAction(threads[i].Snippet)
	}
	threads = brief.RankThreads(threads)
	for i := range threads {
		threads[i].Rationale = brief.BuildRationale(threads[i], now)
	}

	events = brief.MarkConflicts(brief.DedupEvents(events))

	return &brief.BriefData{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Events:      events,
		TopEmails:   brief.TopThreads(threads, brief.TopEmailCount),
		AllEmails:   threads,
	}, nil
}

type rawThreadWithAccount struct {
	accountID uint
	raw       sources.RawThread
}

type rawEventWithAccount struct {
	accountID uint
	raw       sources.RawEvent
}

func parseThreads(raws []rawThreadWithAccount) ([]brief.EmailThread, int) {
	threads := make([]brief.EmailThread, 0, len(raws))
	skipped := 0
	for _, r := range raws {
		t, err := sources.ParseThread(r.accountID, r.raw)
		if err != nil {
			skipped++
			continue
		}
		threads = append(threads, t)
	}
	return threads, skipped
}

func parseEvents(raws []rawEventWithAccount) ([]brief.CalendarEvent, int) {
	events := make([]brief.CalendarEvent, 0, len(raws))
	skipped := 0
	for _, r := range raws {
		e, err := sources.ParseEvent(r.accountID, r.raw)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

// defaultSources builds real IMAP and calendar sources from the user's
// enabled linked accounts
func (s *BriefService) defaultSources(userID uint, settings *models.UserSettings) ([]accountSources, error) {
	accounts, err := s.accountService.ListEnabledAccounts(userID)
	if err != nil {
		return nil, err
	}

	sets := make([]accountSources, 0, len(accounts))
	for i := range accounts {
		account := &accounts[i]
		set := accountSources{accountID: account.ID}

		if account.IMAPHost != "" {
			password, err := s.accountService.GetDecryptedPassword(account)
			if err != nil {
				s.logService.LogError(userID, models.LogModuleAccount, "decrypt", "Cannot decrypt account password, skipping email source", map[string]interface{}{
					"account_id": account.ID,
				})
			} else {
				set.email = sources.NewIMAPSource(sources.IMAPConfig{
					Host:     account.IMAPHost,
					Port:     account.IMAPPort,
					Username: account.Username,
					Password: password,
					UseSSL:   account.UseSSL,
				})
			}
		}

		if account.OAuthAccessToken != "" && settings.GoogleClientID != "" {
			token := &oauth2.Token{
				AccessToken:  account.OAuthAccessToken,
				RefreshToken: account.OAuthRefreshToken,
				Expiry:       account.OAuthTokenExpiry,
			}
			set.calendar = sources.NewCalendarAPISource(calendarOAuthConfig(settings), token, account.CalendarID)
		}

		if set.email != nil || set.calendar != nil {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// calendarOAuthConfig builds the OAuth client config for the calendar API
func calendarOAuthConfig(settings *models.UserSettings) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     settings.GoogleClientID,
		ClientSecret: settings.GoogleClientSecret,
		RedirectURL:  settings.GoogleRedirectURL,
		Scopes:       []string{calendarapi.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}
