package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/dayspark/core/internal/database/models"
)

var (
	// ErrAccountNotFound indicates the linked account was not found
	ErrAccountNotFound = errors.New("linked account not found")
	// ErrAccountAlreadyExists indicates the account is already linked for this user
	ErrAccountAlreadyExists = errors.New("account already linked for this user")
	// ErrInvalidAccountData indicates invalid account data
	ErrInvalidAccountData = errors.New("invalid account data")
	// ErrEncryptionFailed indicates password encryption failed
	ErrEncryptionFailed = errors.New("password encryption failed")
	// ErrDecryptionFailed indicates password decryption failed
	ErrDecryptionFailed = errors.New("password decryption failed")
)

// AccountService handles linked-account business logic
type AccountService struct {
	db            *gorm.DB
	encryptionKey []byte // 32 bytes for AES-256
	logService    *LogService
}

// NewAccountService creates a new AccountService instance
func NewAccountService(db *gorm.DB, encryptionKey []byte) *AccountService {
	key := make([]byte, 32)
	copy(key, encryptionKey)
	return &AccountService{
		db:            db,
		encryptionKey: key,
		logService:    NewLogService(db),
	}
}

// encryptPassword encrypts a password using AES-256-GCM
func (s *AccountService) encryptPassword(password string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", ErrEncryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrEncryptionFailed
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrEncryptionFailed
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(password), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decryptPassword decrypts a password using AES-256-GCM
func (s *AccountService) decryptPassword(encryptedPassword string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedPassword)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrDecryptionFailed
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// CreateAccountInput represents the input for linking an account
type CreateAccountInput struct {
	UserID      uint
	Email       string
	DisplayName string
	Primary     bool
	IMAPHost    string
	IMAPPort    int
	Username    string
	Password    string
	UseSSL      bool
	CalendarID  string
}

// CreateAccount links a new account for a user
func (s *AccountService) CreateAccount(input CreateAccountInput) (*models.LinkedAccount, error) {
	if input.Email == "" {
		return nil, ErrInvalidAccountData
	}
	if input.IMAPHost != "" && (input.Username == "" || input.Password == "") {
		return nil, ErrInvalidAccountData
	}

	var existing models.LinkedAccount
	if err := s.db.Where("user_id = ? AND email = ?", input.UserID, input.Email).First(&existing).Error; err == nil {
		return nil, ErrAccountAlreadyExists
	}

	account := &models.LinkedAccount{
		UserID:      input.UserID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Primary:     input.Primary,
		Enabled:     true,
		IMAPHost:    input.IMAPHost,
		IMAPPort:    input.IMAPPort,
		Username:    input.Username,
		UseSSL:      input.UseSSL,
		CalendarID:  input.CalendarID,
	}

	if input.Password != "" {
		encrypted, err := s.encryptPassword(input.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordEncrypted = encrypted
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, err
	}

	s.logService.LogInfo(input.UserID, models.LogModuleAccount, "create", "Account linked", map[string]interface{}{
		"account_id": account.ID,
		"email":      account.Email,
		"primary":    account.Primary,
	})

	return account, nil
}

// ListAccounts returns all linked accounts for a user
func (s *AccountService) ListAccounts(userID uint) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListEnabledAccounts returns the enabled linked accounts for a user
func (s *AccountService) ListEnabledAccounts(userID uint) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	if err := s.db.Where("user_id = ? AND enabled = ?", userID, true).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccountByIDAndUserID retrieves an account and verifies ownership
func (s *AccountService) GetAccountByIDAndUserID(accountID, userID uint) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetDecryptedPassword returns the account's IMAP password in plain text
func (s *AccountService) GetDecryptedPassword(account *models.LinkedAccount) (string, error) {
	if account.PasswordEncrypted == "" {
		return "", nil
	}
	return s.decryptPassword(account.PasswordEncrypted)
}

// SetEnabled enables or disables a linked account
func (s *AccountService) SetEnabled(accountID, userID uint, enabled bool) error {
	account, err := s.GetAccountByIDAndUserID(accountID, userID)
	if err != nil {
		return err
	}
	if err := s.db.Model(account).Update("enabled", enabled).Error; err != nil {
		return err
	}
	s.logService.LogInfo(userID, models.LogModuleAccount, "status_change", "Account status changed", map[string]interface{}{
		"account_id": accountID,
		"enabled":    enabled,
	})
	return nil
}

// DeleteAccount removes a linked account
func (s *AccountService) DeleteAccount(accountID, userID uint) error {
	account, err := s.GetAccountByIDAndUserID(accountID, userID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(account).Error; err != nil {
		return err
	}
	s.logService.LogInfo(userID, models.LogModuleAccount, "delete", "Account unlinked", map[string]interface{}{
		"account_id": accountID,
		"email":      account.Email,
	})
	return nil
}

// LinkCalendarInput represents a calendar link created via OAuth
type LinkCalendarInput struct {
	UserID       uint
	Email        string
	DisplayName  string
	CalendarID   string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
}

// LinkCalendar attaches calendar credentials to the user's account for
// the given address, creating a calendar-only account when no linked
// account with that address exists yet
func (s *AccountService) LinkCalendar(input LinkCalendarInput) error {
	var account models.LinkedAccount
	err := s.db.Where("user_id = ? AND email = ?", input.UserID, input.Email).First(&account).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		account = models.LinkedAccount{
			UserID:      input.UserID,
			Email:       input.Email,
			DisplayName: input.DisplayName,
			Enabled:     true,
		}
		if err := s.db.Create(&account).Error; err != nil {
			return err
		}
	}

	account.CalendarID = input.CalendarID
	account.OAuthAccessToken = input.AccessToken
	account.OAuthTokenExpiry = input.TokenExpiry
	if input.RefreshToken != "" {
		account.OAuthRefreshToken = input.RefreshToken
	}
	if err := s.db.Save(&account).Error; err != nil {
		return err
	}

	s.logService.LogInfo(input.UserID, models.LogModuleAccount, "link_calendar", "Calendar linked", map[string]interface{}{
		"account_id": account.ID,
		"email":      account.Email,
	})
	return nil
}

// UpdateOAuthTokens stores refreshed calendar tokens for an account.
// The refresh token is only replaced when the provider issued a new one.
func (s *AccountService) UpdateOAuthTokens(accountID uint, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"o_auth_access_token": accessToken,
		"o_auth_token_expiry": expiry,
	}
	if refreshToken != "" {
		updates["o_auth_refresh_token"] = refreshToken
	}
	return s.db.Model(&models.LinkedAccount{}).Where("id = ?", accountID).Updates(updates).Error
}
