package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is a broker's view of a fund account: total equity and cash, USD.
type Valuation struct {
	Equity decimal.Decimal
	Cash   decimal.Decimal
}

// BrokerValuationService fetches the current valuation of a fund's broker account.
// Implementations return BrokerUnavailableError when the broker call fails.
type BrokerValuationService interface {
	GetValuation(ctx context.Context, fund *Fund) (Valuation, error)
}

// ClosePrice is one daily closing price of a benchmark symbol.
type ClosePrice struct {
	Date  time.Time
	Close decimal.Decimal
}

// PriceSeriesProvider fetches daily closes for a benchmark symbol over [start, end).
// An empty slice means no data; implementations do not error for "no data".
type PriceSeriesProvider interface {
	GetDailyClose(ctx context.Context, symbol string, start, end time.Time) ([]ClosePrice, error)
}
