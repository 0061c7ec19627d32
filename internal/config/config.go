package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port          string
	Environment   string
	LogLevel      string
	StorageDriver string // STORAGE_DRIVER: postgres | memory
	Database      DatabaseConfig
	Session       SessionConfig
	Gateway       GatewayConfig
	Site          SiteConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SessionConfig controls JWT issuance and the session cookie
type SessionConfig struct {
	JWTSecret  string
	TTL        time.Duration
	CookieName string
}

// GatewayConfig is used to call the payment gateway (Razorpay-compatible REST API)
type GatewayConfig struct {
	BaseURL       string // e.g. https://api.razorpay.com/v1
	KeyID         string
	KeySecret     string // also the HMAC secret for payment signatures
	AccountNumber string // merchant account payouts are debited from
	Timeout       time.Duration
}

// SiteConfig holds read-only settings surfaced to clients. Settlement logic only reads Currency.
type SiteConfig struct {
	Name             string
	Currency         string
	PayoutSchedule   string
	PayoutMinAmount  decimal.Decimal
	TaxRatePercent   decimal.Decimal
	EnableAffiliates bool
	EnableCoupons    bool
	EnableEnquiries  bool
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:          getEnvOrViper("PORT", "8080"),
		Environment:   getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:      getEnvOrViper("LOG_LEVEL", "info"),
		StorageDriver: strings.ToLower(strings.TrimSpace(getEnvOrViper("STORAGE_DRIVER", StoragePostgres))),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "marketplace"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Session: SessionConfig{
			JWTSecret:  strings.TrimSpace(getEnvOrViper("JWT_SECRET", "")),
			CookieName: getEnvOrViper("SESSION_COOKIE_NAME", "token"),
		},
		Gateway: GatewayConfig{
			BaseURL:       strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("GATEWAY_BASE_URL", "https://api.razorpay.com/v1")), "/"),
			KeyID:         strings.TrimSpace(getEnvOrViper("GATEWAY_KEY_ID", "")),
			KeySecret:     strings.TrimSpace(getEnvOrViper("GATEWAY_KEY_SECRET", "")),
			AccountNumber: strings.TrimSpace(getEnvOrViper("GATEWAY_ACCOUNT_NUMBER", "")),
		},
		Site: SiteConfig{
			Name:             getEnvOrViper("SITE_NAME", "Marketplace"),
			Currency:         strings.ToUpper(getEnvOrViper("SITE_CURRENCY", "INR")),
			PayoutSchedule:   getEnvOrViper("PAYOUT_SCHEDULE", "weekly"),
			EnableAffiliates: getBool("FEATURE_AFFILIATES", true),
			EnableCoupons:    getBool("FEATURE_COUPONS", true),
			EnableEnquiries:  getBool("FEATURE_ENQUIRIES", true),
		},
	}

	var err error
	if cfg.Session.TTL, err = time.ParseDuration(getEnvOrViper("SESSION_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.Gateway.Timeout, err = time.ParseDuration(getEnvOrViper("GATEWAY_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	if cfg.Site.PayoutMinAmount, err = decimal.NewFromString(getEnvOrViper("PAYOUT_MIN_AMOUNT", "100")); err != nil {
		return nil, fmt.Errorf("invalid PAYOUT_MIN_AMOUNT: %w", err)
	}
	if cfg.Site.TaxRatePercent, err = decimal.NewFromString(getEnvOrViper("TAX_RATE_PERCENT", "0")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE_PERCENT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	if c.Session.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.Session.JWTSecret = "development-secret-change-me"
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.IsProduction() && (c.Gateway.KeyID == "" || c.Gateway.KeySecret == "") {
		return fmt.Errorf("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	}
	if c.TaxRatePercentInvalid() {
		return fmt.Errorf("TAX_RATE_PERCENT must be between 0 and 100")
	}
	return nil
}

// TaxRatePercentInvalid reports an out-of-range tax rate
func (c *Config) TaxRatePercentInvalid() bool {
	return c.Site.TaxRatePercent.IsNegative() || c.Site.TaxRatePercent.GreaterThan(decimal.NewFromInt(100))
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnvOrViper(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
