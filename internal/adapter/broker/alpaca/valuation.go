package alpaca

import (
	"context"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/quantcap/fundledger-backend/internal/domain"
)

// ValuationService implements domain.BrokerValuationService against the Alpaca
// trading API. Account equity and cash come back as decimals, so no float
// round-trip happens on the valuation path.
type ValuationService struct {
	client *alpaca.Client
}

// Ensure ValuationService implements the interface
var _ domain.BrokerValuationService = (*ValuationService)(nil)

// NewValuationService returns a new Alpaca valuation service.
func NewValuationService(keyID, secretKey, baseURL string) *ValuationService {
	return &ValuationService{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    keyID,
			APISecret: secretKey,
			BaseURL:   baseURL,
		}),
	}
}

// GetValuation fetches the current equity and cash of the fund's broker account.
func (s *ValuationService) GetValuation(ctx context.Context, fund *domain.Fund) (domain.Valuation, error) {
	acct, err := s.client.GetAccount()
	if err != nil {
		return domain.Valuation{}, &domain.BrokerUnavailableError{Custodian: fund.Custodian, Err: err}
	}

	return domain.Valuation{
		Equity: acct.Equity,
		Cash:   acct.Cash,
	}, nil
}
