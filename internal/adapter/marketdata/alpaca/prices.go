package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PriceSeriesProvider implements domain.PriceSeriesProvider with Alpaca daily bars.
// Used for benchmark closes only; an empty series for a period is not an error.
type PriceSeriesProvider struct {
	client *marketdata.Client
}

// Ensure PriceSeriesProvider implements the interface
var _ domain.PriceSeriesProvider = (*PriceSeriesProvider)(nil)

// NewPriceSeriesProvider returns a new Alpaca market data provider.
func NewPriceSeriesProvider(keyID, secretKey string) *PriceSeriesProvider {
	return &PriceSeriesProvider{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    keyID,
			APISecret: secretKey,
		}),
	}
}

// GetDailyClose fetches daily closing prices for symbol over [start, end).
func (p *PriceSeriesProvider) GetDailyClose(ctx context.Context, symbol string, start, end time.Time) ([]domain.ClosePrice, error) {
	bars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily bars for %s: %w", symbol, err)
	}

	closes := make([]domain.ClosePrice, 0, len(bars))
	for _, bar := range bars {
		closes = append(closes, domain.ClosePrice{
			Date:  bar.Timestamp,
			Close: decimal.NewFromFloat(bar.Close),
		})
	}

	return closes, nil
}
