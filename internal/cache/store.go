package cache

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dayspark/core/internal/database/models"
)

// Store is opaque string key-value storage used by the cache to persist
// the last generated brief across process restarts
type Store interface {
	// Get returns the stored value and whether the key was present
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// GormStore is a Store backed by the kv_entries table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore on the given database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get implements Store
func (s *GormStore) Get(key string) (string, bool, error) {
	var entry models.KVEntry
	if err := s.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set implements Store
func (s *GormStore) Set(key, value string) error {
	var existing models.KVEntry
	if err := s.db.Where("key = ?", key).First(&existing).Error; err == nil {
		existing.Value = value
		return s.db.Save(&existing).Error
	}
	return s.db.Create(&models.KVEntry{Key: key, Value: value}).Error
}

// Remove implements Store
func (s *GormStore) Remove(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.KVEntry{}).Error
}
