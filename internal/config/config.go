package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/logger"
	"github.com/shopspring/decimal"
)

// Defaults holds configured fallbacks for the bookkeeping operations. They are
// passed into services explicitly rather than read from ambient globals.
type Defaults struct {
	PricingPolicy           domain.PricingPolicy
	BenchmarkSymbol         string
	StrategyVersion         string
	ManagementFeeAnnualRate decimal.Decimal
}

// Config is the process configuration, sourced from a .env file and the environment.
type Config struct {
	DBConnString string

	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaBaseURL   string

	Defaults Defaults
}

// Load reads a .env file if present, then builds the configuration from the
// environment with local-development fallbacks.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment variables", nil)
	}

	cfg := Config{
		DBConnString:    os.Getenv("DB_CONN_STR"),
		AlpacaKeyID:     os.Getenv("ALPACA_KEY_ID"),
		AlpacaSecretKey: os.Getenv("ALPACA_SECRET_KEY"),
		AlpacaBaseURL:   getenv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
		Defaults: Defaults{
			PricingPolicy:           domain.PricingPolicyPrev,
			BenchmarkSymbol:         getenv("BENCHMARK_SYMBOL", "SPY"),
			StrategyVersion:         getenv("STRATEGY_VERSION", "unknown"),
			ManagementFeeAnnualRate: getenvDecimal("MGMT_FEE_ANNUAL_RATE", "0.02"),
		},
	}

	if cfg.DBConnString == "" {
		// Build the connection string from individual vars (Docker friendly)
		cfg.DBConnString = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_PORT", "5432"),
			getenv("DB_USER", "postgres"),
			getenv("DB_PASSWORD", "postgres"),
			getenv("DB_NAME", "fundledger"),
		)
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDecimal(key, fallback string) decimal.Decimal {
	raw := getenv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Warn("invalid decimal in environment, using fallback", logger.Fields{
			"key":      key,
			"value":    raw,
			"fallback": fallback,
		})
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
