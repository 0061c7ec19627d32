package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/gateway"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:   "development",
		LogLevel:      "info",
		StorageDriver: config.StorageMemory,
		Session:       config.SessionConfig{JWTSecret: "secret", TTL: time.Hour, CookieName: "token"},
		Site:          config.SiteConfig{Currency: "INR"},
	}
}

func TestNewWithMemoryStorage(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), zap.NewNop(), true)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB())
	assert.NotNil(t, a.Services.Orders)
	assert.NotNil(t, a.Metrics.Registry())
	assert.IsType(t, &gateway.Sandbox{}, a.Gateway)
}

func TestNewGatewayUsesClientWithCredentials(t *testing.T) {
	cfg := memoryConfig()
	cfg.Gateway = config.GatewayConfig{BaseURL: "https://gateway.example", KeyID: "key", KeySecret: "secret"}
	assert.IsType(t, &gateway.Client{}, NewGateway(cfg, zap.NewNop()))

	cfg.Gateway.KeyID = ""
	assert.IsType(t, &gateway.Sandbox{}, NewGateway(cfg, zap.NewNop()))
}

func TestNewLogger(t *testing.T) {
	cfg := memoryConfig()
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
