package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dayspark/core/internal/database/models"
)

// RefreshScheduler regenerates briefs in the background so the cache is
// warm when users ask for them. Each cycle walks every user that has at
// least one enabled linked account.
type RefreshScheduler struct {
	db           *gorm.DB
	briefService *BriefService
	logService   *LogService
	interval     time.Duration
	stopChan     chan struct{}
	running      bool
	mu           sync.Mutex
	refreshing   sync.Mutex // prevents overlapping refresh cycles
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(db *gorm.DB, briefService *BriefService, logService *LogService, interval time.Duration) *RefreshScheduler {
	return &RefreshScheduler{
		db:           db,
		briefService: briefService,
		logService:   logService,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the background refresh process
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[RefreshScheduler] Starting with interval: %v", s.interval)

	go func() {
		// Wait a moment after startup so the service is fully ready
		select {
		case <-time.After(10 * time.Second):
			log.Println("[RefreshScheduler] Running first refresh...")
			s.refreshAllUsers()
		case <-s.stopChan:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				log.Println("[RefreshScheduler] Running scheduled refresh...")
				s.refreshAllUsers()
			case <-s.stopChan:
				log.Println("[RefreshScheduler] Stopping")
				return
			}
		}
	}()
}

// Stop stops the background refresh process
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// refreshAllUsers regenerates the brief for every user with enabled
// accounts. If the previous cycle is still running, this one is skipped.
func (s *RefreshScheduler) refreshAllUsers() {
	if !s.refreshing.TryLock() {
		log.Println("[RefreshScheduler] Previous refresh still running, skipping this cycle")
		return
	}
	defer s.refreshing.Unlock()

	var userIDs []uint
	if err := s.db.Model(&models.LinkedAccount{}).
		Where("enabled = ?", true).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		log.Printf("[RefreshScheduler] Failed to list users: %v", err)
		return
	}

	if len(userIDs) == 0 {
		return
	}

	log.Printf("[RefreshScheduler] Refreshing briefs for %d users", len(userIDs))

	var wg sync.WaitGroup
	for _, userID := range userIDs {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			s.refreshOneUser(uid)
		}(userID)
	}
	wg.Wait()

	log.Println("[RefreshScheduler] Refresh cycle completed")
}

// refreshOneUser regenerates one user's brief, with retries
func (s *RefreshScheduler) refreshOneUser(userID uint) {
	const maxRetries = 2
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s before the first retry, 4s before the second
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[RefreshScheduler] User %d retry %d/%d after %v", userID, attempt, maxRetries, backoff)

			select {
			case <-time.After(backoff):
			case <-s.stopChan:
				return
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		result, err := s.briefService.GenerateBrief(ctx, userID)
		cancel()
		if err == nil {
			if result.Stale {
				// A stale result means generation itself failed upstream
				lastErr = ErrNoBriefAvailable
				continue
			}
			if attempt > 0 {
				log.Printf("[RefreshScheduler] User %d brief refreshed after %d retries", userID, attempt)
			}
			return
		}

		lastErr = err
		log.Printf("[RefreshScheduler] User %d refresh attempt %d failed: %v", userID, attempt+1, err)
	}

	log.Printf("[RefreshScheduler] User %d refresh failed after %d attempts: %v", userID, maxRetries+1, lastErr)
	s.logService.LogWarn(userID, models.LogModuleBrief, "auto_refresh", "Background refresh failed", map[string]interface{}{
		"error":   lastErr.Error(),
		"retries": maxRetries,
	})
}
