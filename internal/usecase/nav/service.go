package nav

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Service produces the authoritative NAV snapshot of a fund for a date: broker
// equity divided by total outstanding units, persisted by upsert so intraday
// re-pricing corrections overwrite earlier figures.
type Service struct {
	FundRepo     domain.FundRepository
	PositionRepo domain.PositionRepository
	NAVRepo      domain.NAVSnapshotRepository
	Broker       domain.BrokerValuationService

	// Now returns the current time; overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new NAV computation Service instance
func NewService(
	fundRepo domain.FundRepository,
	positionRepo domain.PositionRepository,
	navRepo domain.NAVSnapshotRepository,
	broker domain.BrokerValuationService,
) *Service {
	return &Service{
		FundRepo:     fundRepo,
		PositionRepo: positionRepo,
		NAVRepo:      navRepo,
		Broker:       broker,
		Now:          time.Now,
	}
}

// ComputeAndSave computes and upserts the NAV snapshot for asOf (today when nil).
// The fund must be ACTIVE and custodied at the supported broker, and must have
// outstanding units: a fund with no units has no price, and usually means the
// inception subscription was never recorded.
func (s *Service) ComputeAndSave(ctx context.Context, fundID uuid.UUID, asOf *time.Time) (*domain.NAVSnapshot, error) {
	fund, err := s.FundRepo.GetByID(ctx, fundID)
	if err != nil {
		return nil, err
	}

	if fund.Custodian != domain.CustodianAlpaca {
		return nil, domain.NewValidationError("NAV computation supports custodian %s only, fund %s is custodied at %s",
			domain.CustodianAlpaca, fund.StrategyCode, fund.Custodian)
	}
	if fund.Status != domain.FundStatusActive {
		return nil, domain.NewValidationError("fund %s must be ACTIVE to compute NAV, status is %s",
			fund.StrategyCode, fund.Status)
	}

	date := s.Now()
	if asOf != nil {
		date = *asOf
	}
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// Total units from the ledger projection, the source of truth for unitization.
	totalUnits, err := s.PositionRepo.SumUnitsByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if totalUnits.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("fund %s has total units <= 0; record the inception subscription first",
			fund.StrategyCode)
	}

	valuation, err := s.Broker.GetValuation(ctx, fund)
	if err != nil {
		return nil, err
	}

	aum := domain.QuantizeUSD(valuation.Equity)
	navPerUnit := domain.QuantizeUnits(aum.Div(totalUnits))
	cash := domain.QuantizeUSD(valuation.Cash)

	snapshot := &domain.NAVSnapshot{
		ID:          uuid.New(),
		FundID:      fundID,
		Date:        date,
		NAVPerUnit:  navPerUnit,
		TotalUnits:  totalUnits,
		AUM:         aum,
		CashBalance: &cash,
		CreatedAt:   s.Now(),
	}
	if err := s.NAVRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}
