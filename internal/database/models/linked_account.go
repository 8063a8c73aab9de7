package models

import (
	"time"
)

// LinkedAccount represents one mail/calendar account linked by a user.
// A user with several linked accounts may see the same thread or event
// in more than one of them; the brief pipeline deduplicates on merge
// keys before ranking.
type LinkedAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Email        string    `gorm:"size:255;not null" json:"email"`
	DisplayName  string    `gorm:"size:100" json:"display_name"`
	Primary      bool      `gorm:"default:false" json:"primary"`
	Enabled      bool      `gorm:"default:true" json:"enabled"`

	// IMAP connection for the email source
	IMAPHost          string `gorm:"size:255" json:"imap_host"`
	IMAPPort          int    `json:"imap_port"`
	Username          string `gorm:"size:255" json:"username"`
	PasswordEncrypted string `gorm:"size:500" json:"-"`
	UseSSL            bool   `gorm:"default:true" json:"use_ssl"`

	// Calendar source config; tokens are issued by the auth collaborator
	CalendarID        string `gorm:"size:255" json:"calendar_id"`
	OAuthAccessToken  string `gorm:"type:text" json:"-"`
	OAuthRefreshToken string `gorm:"type:text" json:"-"`
	OAuthTokenExpiry  time.Time `json:"oauth_token_expiry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
