package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8101/api", cfg.API.BaseURL)
	assert.Equal(t, "Consumidor Final", cfg.POS.DefaultCustomerName)
	assert.Equal(t, "9999999999", cfg.POS.DefaultCustomerDocument)
	assert.True(t, cfg.App.IsDev())

	rate, err := cfg.POS.TaxRate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.12")))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIENDAFACIL_APP_ENV", "prod")
	t.Setenv("TIENDAFACIL_POS_TAX_RATE", "0.15")
	t.Setenv("TIENDAFACIL_API_BASE_URL", "https://pos.tiendafacil.ec/api")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProd())
	assert.Equal(t, "https://pos.tiendafacil.ec/api", cfg.API.BaseURL)

	rate, err := cfg.POS.TaxRate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.15")))
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	t.Setenv("TIENDAFACIL_POS_TAX_RATE", "doce")
	_, err := Load()
	assert.Error(t, err)
}

func TestTaxRateRejectsNegative(t *testing.T) {
	t.Parallel()

	_, err := POSConfig{RawTaxRate: "-0.12"}.TaxRate()
	assert.Error(t, err)
}

func TestTaxRateTrimsWhitespace(t *testing.T) {
	t.Parallel()

	rate, err := POSConfig{RawTaxRate: " 0.12 "}.TaxRate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.12")))
}
