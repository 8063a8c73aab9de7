package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Nickname     string    `gorm:"size:100" json:"nickname"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	LinkedAccounts []LinkedAccount `gorm:"foreignKey:UserID" json:"linked_accounts,omitempty"`
	Settings       *UserSettings   `gorm:"foreignKey:UserID" json:"settings,omitempty"`
}

// Window bounds for the fetch settings (hours)
const (
	MinWindowHours = 1
	MaxWindowHours = 168
	// DefaultEmailWindowHours is how far back email threads are fetched
	DefaultEmailWindowHours = 96
	// DefaultCalendarWindowHours is how far ahead events are fetched
	DefaultCalendarWindowHours = 24
)

// UserSettings stores user-specific brief settings
type UserSettings struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	UserID              uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	EmailWindowHours    int    `gorm:"default:96" json:"email_window_hours"`
	CalendarWindowHours int    `gorm:"default:24" json:"calendar_window_hours"`
	VIPDomains          string `gorm:"type:text" json:"vip_domains"` // comma-separated domain allowlist

	// Google OAuth client used by the calendar source
	GoogleClientID     string `gorm:"size:500" json:"google_client_id"`
	GoogleClientSecret string `gorm:"size:500" json:"google_client_secret"`
	GoogleRedirectURL  string `gorm:"size:500" json:"google_redirect_url"`
}

// ValidWindow checks that a fetch window is within the allowed range
func ValidWindow(hours int) bool {
	return hours >= MinWindowHours && hours <= MaxWindowHours
}
