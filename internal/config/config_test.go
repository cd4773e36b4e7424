package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-store-sync/merchant-api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_URL", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("PAYPAL_ENVIRONMENT", "")
	t.Setenv("PAYPAL_JWT_STRICT", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "https://www.pp-store-sync.railway.app", cfg.App.StoreURL)
	assert.Equal(t, "product_catalog.csv", cfg.App.CatalogPath)
	assert.Equal(t, config.EnvSandbox, cfg.PayPal.Environment)
	assert.False(t, cfg.PayPal.JWTStrict)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PAYPAL_ENVIRONMENT", "production")
	t.Setenv("PAYPAL_CLIENT_ID", "client-id")
	t.Setenv("PAYPAL_CLIENT_SECRET", "client-secret")
	t.Setenv("PAYPAL_JWT_STRICT", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, config.EnvProduction, cfg.PayPal.Environment)
	assert.Equal(t, "client-id", cfg.PayPal.ClientID)
	assert.Equal(t, "client-secret", cfg.PayPal.ClientSecret)
	assert.True(t, cfg.PayPal.JWTStrict)
}

func TestLoad_UnknownEnvironmentFallsBackToSandbox(t *testing.T) {
	t.Setenv("PAYPAL_ENVIRONMENT", "STAGING")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.EnvSandbox, cfg.PayPal.Environment)
}
