package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dayspark/core/internal/database/models"
)

var (
	// ErrSettingsNotFound indicates the user has no settings row
	ErrSettingsNotFound = errors.New("settings not found")
	// ErrInvalidWindow indicates an out-of-range lookback or lookahead window
	ErrInvalidWindow = errors.New("window hours must be between 1 and 168")
)

// SettingsService handles per-user brief settings
type SettingsService struct {
	db         *gorm.DB
	logService *LogService
}

// NewSettingsService creates a new SettingsService instance
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		db:         db,
		logService: NewLogService(db),
	}
}

// GetSettings returns the user's settings, creating defaults on first use
func (s *SettingsService) GetSettings(userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = models.UserSettings{
		UserID:              userID,
		EmailWindowHours:    models.DefaultEmailWindowHours,
		CalendarWindowHours: models.DefaultCalendarWindowHours,
	}
	if err := s.db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettingsInput represents a settings update. Nil fields are left
// unchanged.
type UpdateSettingsInput struct {
	EmailWindowHours    *int
	CalendarWindowHours *int
	VIPDomains          *string
	GoogleClientID      *string
	GoogleClientSecret  *string
	GoogleRedirectURL   *string
}

// UpdateSettings validates and applies a settings update
func (s *SettingsService) UpdateSettings(userID uint, input UpdateSettingsInput) (*models.UserSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	if input.EmailWindowHours != nil {
		if !models.ValidWindow(*input.EmailWindowHours) {
			return nil, ErrInvalidWindow
		}
		settings.EmailWindowHours = *input.EmailWindowHours
	}
	if input.CalendarWindowHours != nil {
		if !models.ValidWindow(*input.CalendarWindowHours) {
			return nil, ErrInvalidWindow
		}
		settings.CalendarWindowHours = *input.CalendarWindowHours
	}
	if input.VIPDomains != nil {
		settings.VIPDomains = normalizeDomainList(*input.VIPDomains)
	}
	if input.GoogleClientID != nil {
		settings.GoogleClientID = *input.GoogleClientID
	}
	if input.GoogleClientSecret != nil {
		settings.GoogleClientSecret = *input.GoogleClientSecret
	}
	if input.GoogleRedirectURL != nil {
		settings.GoogleRedirectURL = *input.GoogleRedirectURL
	}

	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}

	s.logService.LogInfo(userID, models.LogModuleSettings, "update", "Settings updated", map[string]interface{}{
		"email_window_hours":    settings.EmailWindowHours,
		"calendar_window_hours": settings.CalendarWindowHours,
	})

	return settings, nil
}

// VIPDomainList parses the stored comma-separated VIP domains
func (s *SettingsService) VIPDomainList(settings *models.UserSettings) []string {
	if settings == nil || settings.VIPDomains == "" {
		return nil
	}
	parts := strings.Split(settings.VIPDomains, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		d := strings.ToLower(strings.TrimSpace(p))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// normalizeDomainList lowercases and trims a comma-separated domain list
func normalizeDomainList(raw string) string {
	parts := strings.Split(raw, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		d := strings.ToLower(strings.TrimSpace(p))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return strings.Join(domains, ",")
}
