package config

import (
	"testing"

	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_CONN_STR", "")
	t.Setenv("BENCHMARK_SYMBOL", "")
	t.Setenv("STRATEGY_VERSION", "")
	t.Setenv("MGMT_FEE_ANNUAL_RATE", "")
	t.Setenv("ALPACA_BASE_URL", "")

	cfg := Load()

	assert.Contains(t, cfg.DBConnString, "dbname=fundledger")
	assert.Equal(t, "https://paper-api.alpaca.markets", cfg.AlpacaBaseURL)
	assert.Equal(t, domain.PricingPolicyPrev, cfg.Defaults.PricingPolicy)
	assert.Equal(t, "SPY", cfg.Defaults.BenchmarkSymbol)
	assert.Equal(t, "unknown", cfg.Defaults.StrategyVersion)
	assert.True(t, cfg.Defaults.ManagementFeeAnnualRate.Equal(decimal.RequireFromString("0.02")))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_CONN_STR", "host=db port=5432 user=app password=secret dbname=ledger sslmode=disable")
	t.Setenv("BENCHMARK_SYMBOL", "QQQ")
	t.Setenv("STRATEGY_VERSION", "v2.3")
	t.Setenv("MGMT_FEE_ANNUAL_RATE", "0.015")

	cfg := Load()

	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=ledger sslmode=disable", cfg.DBConnString)
	assert.Equal(t, "QQQ", cfg.Defaults.BenchmarkSymbol)
	assert.Equal(t, "v2.3", cfg.Defaults.StrategyVersion)
	assert.True(t, cfg.Defaults.ManagementFeeAnnualRate.Equal(decimal.RequireFromString("0.015")))
}

func TestLoad_InvalidFeeRateFallsBack(t *testing.T) {
	t.Setenv("MGMT_FEE_ANNUAL_RATE", "two percent")

	cfg := Load()

	assert.True(t, cfg.Defaults.ManagementFeeAnnualRate.Equal(decimal.RequireFromString("0.02")))
}
