package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"server"`
	Database    DatabaseConfig    `yaml:"database" envconfig:"database"`
	Storage     StorageConfig     `yaml:"storage" envconfig:"storage"`
	Privacy     PrivacyConfig     `yaml:"privacy" envconfig:"privacy"`
	Certificate CertificateConfig `yaml:"certificate" envconfig:"certificate"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"logging"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr          string   `yaml:"listen_addr" envconfig:"listen_addr"`
	PublicVerifyBaseURL string   `yaml:"public_verify_base_url" envconfig:"public_verify_base_url"`
	TrustedProxies      []string `yaml:"trusted_proxies" envconfig:"trusted_proxies"`
	CORSEnabled         bool     `yaml:"cors_enabled" envconfig:"cors_enabled"`
}

// DatabaseConfig contains document store configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" envconfig:"db_driver"`
	DSN    string `yaml:"dsn" envconfig:"db_dsn"`
}

// StorageConfig contains S3-compatible blob store configuration
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint" envconfig:"r2_endpoint"`
	Region          string `yaml:"region" envconfig:"r2_region"`
	Bucket          string `yaml:"bucket" envconfig:"r2_bucket"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"r2_access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"r2_secret_access_key"`
	KeyPrefix       string `yaml:"key_prefix" envconfig:"r2_key_prefix"`
	DownloadTTL     string `yaml:"download_ttl" envconfig:"download_ttl"`
}

// PrivacyConfig contains the pepper used for keyed hashing of request metadata
type PrivacyConfig struct {
	Pepper string `yaml:"pepper" envconfig:"ip_hash_pepper"`
}

// CertificateConfig contains the fixed text printed on rendered certificates
type CertificateConfig struct {
	Laboratory      string `yaml:"laboratory" envconfig:"laboratory"`
	Brand           string `yaml:"brand" envconfig:"brand"`
	VerifyHostLabel string `yaml:"verify_host_label" envconfig:"verify_host_label"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"log_level"`
	Format string `yaml:"format" envconfig:"log_format"`
}

const (
	DefaultLaboratory  = "Antiquiscore™ Lab"
	DefaultBrand       = "ANTIQUISCORE™"
	DefaultKeyPrefix   = "certificates"
	DefaultRegion      = "auto"
	DefaultDownloadTTL = "120s"
)

// ApplyDefaults fills optional fields left empty by the file and the environment
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = DefaultRegion
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = DefaultKeyPrefix
	}
	if c.Storage.DownloadTTL == "" {
		c.Storage.DownloadTTL = DefaultDownloadTTL
	}
	if c.Certificate.Laboratory == "" {
		c.Certificate.Laboratory = DefaultLaboratory
	}
	if c.Certificate.Brand == "" {
		c.Certificate.Brand = DefaultBrand
	}
	if c.Certificate.VerifyHostLabel == "" {
		if u, err := url.Parse(c.Server.PublicVerifyBaseURL); err == nil && u.Host != "" {
			c.Certificate.VerifyHostLabel = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.PublicVerifyBaseURL == "" {
		return fmt.Errorf("server.public_verify_base_url is required")
	}
	if u, err := url.Parse(c.Server.PublicVerifyBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.public_verify_base_url must be an absolute URL")
	}

	// Database validation
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver must be 'sqlite3' or 'postgres'")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
		return fmt.Errorf("storage.access_key_id and storage.secret_access_key are required")
	}
	ttl, err := ParseDuration(c.Storage.DownloadTTL)
	if err != nil {
		return fmt.Errorf("storage.download_ttl is invalid: %w", err)
	}
	if ttl <= 0 || ttl > 7*24*time.Hour {
		return fmt.Errorf("storage.download_ttl must be between 1s and 168h")
	}

	// Privacy validation
	if len(c.Privacy.Pepper) < 32 {
		return fmt.Errorf("privacy.pepper must be at least 32 characters")
	}
	if c.Privacy.Pepper == "change-me-change-me-change-me-change-me" {
		fmt.Fprintf(os.Stderr, "WARNING: Using default privacy pepper. Please change it in production!\n")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "error": true, "fatal": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, error, fatal")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// GetDownloadTTL returns the signed download link lifetime
func (c *Config) GetDownloadTTL() time.Duration {
	d, _ := ParseDuration(c.Storage.DownloadTTL)
	return d
}

// ParseDuration parses duration with support for days (e.g., "90d")
func ParseDuration(s string) (time.Duration, error) {
	// Handle "d" suffix for days
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, err
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
