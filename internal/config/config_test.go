package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "token", cfg.Session.CookieName)
	assert.NotEmpty(t, cfg.Session.JWTSecret)
	assert.Equal(t, "INR", cfg.Site.Currency)
	assert.True(t, cfg.Site.PayoutMinAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.Site.EnableAffiliates)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_KEY_ID")
}

func TestFeatureToggles(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("FEATURE_COUPONS", "off")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Site.EnableCoupons)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}
