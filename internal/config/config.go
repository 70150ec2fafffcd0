// Package config provides application configuration loaded from
// environment variables or a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// BaseURL is the public origin of the profile pages.
	// It forms the canonical profile URL {BaseURL}/u/{username}
	// that gets encoded into QR codes.
	BaseURL string `yaml:"base_url"`

	API     *APIConfig     `yaml:"api,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Auth    *AuthConfig    `yaml:"auth,omitempty"`
	Billing *BillingConfig `yaml:"billing,omitempty"`
}

// APIConfig represents the REST API server configuration
type APIConfig struct {
	Addr string `yaml:"addr"` // e.g. ":8080"
}

// StoreConfig represents the Firestore configuration
type StoreConfig struct {
	ProjectID   string `yaml:"project_id"`
	Database    string `yaml:"database,omitempty"`    // defaults to "(default)"
	Credentials string `yaml:"credentials,omitempty"` // path to service account JSON
}

// StorageConfig represents the Cloud Storage configuration for
// avatar and QR code assets
type StorageConfig struct {
	Bucket      string `yaml:"bucket"`
	Credentials string `yaml:"credentials,omitempty"`
}

// AuthConfig represents the Firebase Auth configuration
type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials,omitempty"`
	TenantID    string `yaml:"tenant_id,omitempty"` // multi-tenant Identity Platform
}

// BillingConfig represents the Stripe billing configuration
type BillingConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	PriceID       string `yaml:"price_id"`    // premium subscription price
	SuccessURL    string `yaml:"success_url"` // checkout redirect on success
	CancelURL     string `yaml:"cancel_url"`  // checkout redirect on cancel
}

// LoadFromEnv builds configuration from environment variables.
// If QRVISIT_CONFIG is set, the YAML file at that path is loaded
// first and environment variables override its values.
//
// Recognized variables:
//   - QRVISIT_BASE_URL (required)
//   - QRVISIT_ADDR
//   - QRVISIT_PROJECT_ID, QRVISIT_DATABASE, QRVISIT_CREDENTIALS
//   - QRVISIT_STORAGE_BUCKET, QRVISIT_STORAGE_CREDENTIALS
//   - QRVISIT_AUTH_DISABLED, QRVISIT_AUTH_TENANT_ID
//   - QRVISIT_STRIPE_SECRET_KEY, QRVISIT_STRIPE_WEBHOOK_SECRET,
//     QRVISIT_STRIPE_PRICE_ID, QRVISIT_STRIPE_SUCCESS_URL,
//     QRVISIT_STRIPE_CANCEL_URL
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("QRVISIT_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := os.Getenv("QRVISIT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv("QRVISIT_ADDR"); v != "" {
		cfg.API = &APIConfig{Addr: v}
	} else if cfg.API == nil {
		cfg.API = &APIConfig{Addr: ":8080"}
	}

	if v := os.Getenv("QRVISIT_PROJECT_ID"); v != "" {
		if cfg.Store == nil {
			cfg.Store = &StoreConfig{}
		}
		cfg.Store.ProjectID = v
	}
	if cfg.Store != nil {
		if v := os.Getenv("QRVISIT_DATABASE"); v != "" {
			cfg.Store.Database = v
		}
		if v := os.Getenv("QRVISIT_CREDENTIALS"); v != "" {
			cfg.Store.Credentials = v
		}
	}

	if v := os.Getenv("QRVISIT_STORAGE_BUCKET"); v != "" {
		if cfg.Storage == nil {
			cfg.Storage = &StorageConfig{}
		}
		cfg.Storage.Bucket = v
	}
	if cfg.Storage != nil {
		if v := os.Getenv("QRVISIT_STORAGE_CREDENTIALS"); v != "" {
			cfg.Storage.Credentials = v
		}
	}

	// Auth shares the Firestore project by default
	if cfg.Auth == nil && cfg.Store != nil {
		cfg.Auth = &AuthConfig{
			Enabled:     true,
			ProjectID:   cfg.Store.ProjectID,
			Credentials: cfg.Store.Credentials,
		}
	}
	if cfg.Auth != nil {
		if os.Getenv("QRVISIT_AUTH_DISABLED") == "true" {
			cfg.Auth.Enabled = false
		}
		if v := os.Getenv("QRVISIT_AUTH_TENANT_ID"); v != "" {
			cfg.Auth.TenantID = v
		}
	}

	if v := os.Getenv("QRVISIT_STRIPE_SECRET_KEY"); v != "" {
		if cfg.Billing == nil {
			cfg.Billing = &BillingConfig{}
		}
		cfg.Billing.SecretKey = v
	}
	if cfg.Billing != nil {
		if v := os.Getenv("QRVISIT_STRIPE_WEBHOOK_SECRET"); v != "" {
			cfg.Billing.WebhookSecret = v
		}
		if v := os.Getenv("QRVISIT_STRIPE_PRICE_ID"); v != "" {
			cfg.Billing.PriceID = v
		}
		if v := os.Getenv("QRVISIT_STRIPE_SUCCESS_URL"); v != "" {
			cfg.Billing.SuccessURL = v
		}
		if v := os.Getenv("QRVISIT_STRIPE_CANCEL_URL"); v != "" {
			cfg.Billing.CancelURL = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Load reads configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if c.Store != nil {
		if err := c.Store.Validate(); err != nil {
			return err
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	if c.Auth != nil && c.Auth.Enabled {
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required when auth is enabled")
		}
	}
	if c.Billing != nil {
		if err := c.Billing.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the store configuration
func (s *StoreConfig) Validate() error {
	if s.ProjectID == "" {
		return fmt.Errorf("store.project_id is required")
	}
	return nil
}

// Validate checks the storage configuration
func (s *StorageConfig) Validate() error {
	if s.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	return nil
}

// Validate checks the billing configuration
func (b *BillingConfig) Validate() error {
	if b.SecretKey == "" {
		return fmt.Errorf("billing.secret_key is required")
	}
	if b.PriceID == "" {
		return fmt.Errorf("billing.price_id is required")
	}
	if b.SuccessURL == "" || b.CancelURL == "" {
		return fmt.Errorf("billing.success_url and billing.cancel_url are required")
	}
	return nil
}
