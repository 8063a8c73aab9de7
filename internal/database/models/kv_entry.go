package models

import (
	"time"
)

// KVEntry is an opaque string key-value row. The brief cache uses it to
// persist the last generated brief across process restarts.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
