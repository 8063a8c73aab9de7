package config

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabasePath       string `json:"database_path"`
	APIPort            string `json:"api_port"`
	LogLevel           string `json:"log_level"`
	DataDir            string `json:"data_dir"`
	JWTSecret          string `json:"jwt_secret"`
	EncryptionKey      string `json:"encryption_key"` // separate key for linked-account passwords
	CORSOrigins        string `json:"cors_origins"`   // comma-separated allowlist, * for all
	CacheTTLMinutes    int    `json:"cache_ttl_minutes"`
	RefreshIntervalMin int    `json:"refresh_interval_minutes"` // 0 disables the background refresh
}

// Default configuration values
const (
	DefaultDatabasePath    = "data/dayspark.db"
	DefaultAPIPort         = "8080"
	DefaultLogLevel        = "INFO"
	DefaultDataDir         = "data"
	DefaultJWTSecret       = "dayspark-default-secret-change-in-production"
	DefaultEncryptionKey   = "" // empty means derive from JWTSecret
	DefaultCORSOrigins     = "*"
	DefaultCacheTTLMinutes = 5
	DefaultRefreshMinutes  = 15
)

// Load loads configuration from environment variables and config file.
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:       DefaultDatabasePath,
		APIPort:            DefaultAPIPort,
		LogLevel:           DefaultLogLevel,
		DataDir:            DefaultDataDir,
		JWTSecret:          DefaultJWTSecret,
		EncryptionKey:      DefaultEncryptionKey,
		CORSOrigins:        DefaultCORSOrigins,
		CacheTTLMinutes:    DefaultCacheTTLMinutes,
		RefreshIntervalMin: DefaultRefreshMinutes,
	}

	// Config file is optional
	cfg.loadFromFile()

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json file
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		return nil
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("DAYSPARK_DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("DAYSPARK_API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("DAYSPARK_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("DAYSPARK_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DAYSPARK_JWT_SECRET"); val != "" {
		c.JWTSecret = val
	}
	if val := os.Getenv("DAYSPARK_ENCRYPTION_KEY"); val != "" {
		c.EncryptionKey = val
	}
	if val := os.Getenv("DAYSPARK_CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
	if val := os.Getenv("DAYSPARK_CACHE_TTL_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.CacheTTLMinutes = n
		}
	}
	if val := os.Getenv("DAYSPARK_REFRESH_INTERVAL_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			c.RefreshIntervalMin = n
		}
	}
}

// GetEncryptionKey returns the encryption key for password encryption.
// If EncryptionKey is set, use it; otherwise derive from JWTSecret.
func (c *Config) GetEncryptionKey() []byte {
	if c.EncryptionKey != "" {
		// SHA-256 guarantees a 32-byte key
		hash := sha256.Sum256([]byte(c.EncryptionKey))
		return hash[:]
	}
	hash := sha256.Sum256([]byte(c.JWTSecret + "-encryption"))
	return hash[:]
}

// CacheTTL returns the brief cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// RefreshInterval returns the background refresh interval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMin) * time.Minute
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
