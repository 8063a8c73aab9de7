package services

import (
	"context"
	"log"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/dayspark/core/internal/database/models"
)

// TokenScheduler refreshes calendar OAuth tokens before they expire so
// brief generation never hits the calendar API with a dead token
type TokenScheduler struct {
	db              *gorm.DB
	accountService  *AccountService
	settingsService *SettingsService
	interval        time.Duration
	stopChan        chan struct{}
	running         bool
}

// NewTokenScheduler creates a new token scheduler
func NewTokenScheduler(db *gorm.DB, accountService *AccountService, settingsService *SettingsService, interval time.Duration) *TokenScheduler {
	return &TokenScheduler{
		db:              db,
		accountService:  accountService,
		settingsService: settingsService,
		interval:        interval,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the token refresh scheduler
func (s *TokenScheduler) Start() {
	if s.running {
		return
	}
	s.running = true
	go s.run()
	log.Printf("[TokenScheduler] Started with interval %v", s.interval)
}

// Stop stops the token refresh scheduler
func (s *TokenScheduler) Stop() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
	log.Println("[TokenScheduler] Stopped")
}

func (s *TokenScheduler) run() {
	// Run immediately on start
	s.refreshExpiringTokens()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshExpiringTokens()
		case <-s.stopChan:
			return
		}
	}
}

// refreshExpiringTokens refreshes tokens that are about to expire
func (s *TokenScheduler) refreshExpiringTokens() {
	log.Println("[TokenScheduler] Checking for expiring tokens...")

	// Accounts with a refresh token whose access token expires in the
	// next 10 minutes
	var accounts []models.LinkedAccount
	threshold := time.Now().Add(10 * time.Minute)

	err := s.db.Where(
		"enabled = ? AND o_auth_refresh_token <> '' AND o_auth_token_expiry < ?",
		true, threshold,
	).Find(&accounts).Error

	if err != nil {
		log.Printf("[TokenScheduler] Error finding accounts: %v", err)
		return
	}

	if len(accounts) == 0 {
		log.Println("[TokenScheduler] No tokens need refresh")
		return
	}

	log.Printf("[TokenScheduler] Found %d accounts with expiring tokens", len(accounts))

	for i := range accounts {
		account := &accounts[i]
		log.Printf("[TokenScheduler] Refreshing token for %s (expires at %v)", account.Email, account.OAuthTokenExpiry)

		if err := s.refreshAccountToken(account); err != nil {
			log.Printf("[TokenScheduler] Failed to refresh token for %s: %v", account.Email, err)
		} else {
			log.Printf("[TokenScheduler] Successfully refreshed token for %s", account.Email)
		}
	}

	log.Println("[TokenScheduler] Token refresh cycle completed")
}

// refreshAccountToken exchanges the refresh token for a new access token
// and persists it
func (s *TokenScheduler) refreshAccountToken(account *models.LinkedAccount) error {
	settings, err := s.settingsService.GetSettings(account.UserID)
	if err != nil {
		return err
	}

	conf := calendarOAuthConfig(settings)
	stale := &oauth2.Token{
		AccessToken:  account.OAuthAccessToken,
		RefreshToken: account.OAuthRefreshToken,
		Expiry:       account.OAuthTokenExpiry,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fresh, err := conf.TokenSource(ctx, stale).Token()
	if err != nil {
		return err
	}

	return s.accountService.UpdateOAuthTokens(account.ID, fresh.AccessToken, fresh.RefreshToken, fresh.Expiry)
}
