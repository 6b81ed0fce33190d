package capitalflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/usecase/pricing"
	"github.com/shopspring/decimal"
)

// ApplyInput represents the input for applying a capital flow
type ApplyInput struct {
	ClientID        uuid.UUID
	FundID          uuid.UUID
	FlowType        domain.FlowType
	FlowDate        time.Time
	Amount          decimal.Decimal
	ExternalRef     string
	PricingPolicy   domain.PricingPolicy // defaults to PREV when empty
	AllowOverRedeem bool
}

// Service converts cash flow requests into fund units and records them exactly once.
// It is the only entry point that writes the capital ledger; administrative surfaces
// are thin callers with no business rules of their own.
type Service struct {
	FlowRepo     domain.CapitalFlowRepository
	PositionRepo domain.PositionRepository
	Pricing      *pricing.Resolver
	UoW          domain.UnitOfWork
}

// NewService creates a new capital flow Service instance
func NewService(
	flowRepo domain.CapitalFlowRepository,
	positionRepo domain.PositionRepository,
	priceResolver *pricing.Resolver,
	uow domain.UnitOfWork,
) *Service {
	return &Service{
		FlowRepo:     flowRepo,
		PositionRepo: positionRepo,
		Pricing:      priceResolver,
		UoW:          uow,
	}
}

// Apply records a subscription or redemption exactly once.
// Logic, all inside one transaction:
//  1. If a flow already exists for (fund, client, external_ref), return it unchanged.
//  2. Resolve the NAV per unit for the flow date under the pricing policy.
//  3. Convert the amount to units (8dp, half up), signed by flow type.
//  4. Lock the (client, fund) position row, creating it with zero units if absent.
//  5. Guard redemptions against driving units negative unless AllowOverRedeem.
//  6. Append the ledger row and update the position together.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (*domain.CapitalFlow, error) {
	if input.ExternalRef == "" {
		return nil, domain.NewValidationError("external_ref is required for idempotency")
	}

	amount := domain.QuantizeUSD(input.Amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("flow amount must be > 0, got %s", input.Amount)
	}

	if input.FlowType != domain.FlowTypeSubscription && input.FlowType != domain.FlowTypeRedemption {
		return nil, domain.NewValidationError("invalid flow_type: %s", input.FlowType)
	}

	policy := input.PricingPolicy
	if policy == "" {
		policy = domain.PricingPolicyPrev
	}

	var flow *domain.CapitalFlow
	err := s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.FlowRepo.GetByExternalRef(ctx, input.FundID, input.ClientID, input.ExternalRef)
		if err == nil {
			// Replay with the same idempotency key: no recomputation, no side effects.
			flow = existing
			return nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}

		nav, err := s.Pricing.Resolve(ctx, input.FundID, input.FlowDate, policy)
		if err != nil {
			return err
		}
		navPerUnit := nav.NAVPerUnit
		if navPerUnit.LessThanOrEqual(decimal.Zero) {
			return &domain.PricingError{
				FundID: input.FundID,
				Date:   nav.Date,
				Policy: policy,
				Msg:    fmt.Sprintf("NAV per unit must be > 0, snapshot %s has %s", nav.Date.Format("2006-01-02"), navPerUnit),
			}
		}

		units := domain.QuantizeUnits(amount.Div(navPerUnit))
		unitsDelta := units
		if input.FlowType == domain.FlowTypeRedemption {
			unitsDelta = units.Neg()
		}

		position, err := s.PositionRepo.GetOrCreateForUpdate(ctx, input.ClientID, input.FundID)
		if err != nil {
			return err
		}

		currentUnits := position.Units
		if input.FlowType == domain.FlowTypeRedemption && !input.AllowOverRedeem {
			if currentUnits.Add(unitsDelta).IsNegative() {
				return &domain.InsufficientUnitsError{
					CurrentUnits: currentUnits,
					RedeemUnits:  units,
				}
			}
		}

		flow = &domain.CapitalFlow{
			ID:          uuid.New(),
			ClientID:    input.ClientID,
			FundID:      input.FundID,
			FlowType:    input.FlowType,
			Amount:      amount,
			NAVAtFlow:   navPerUnit,
			UnitsDelta:  unitsDelta,
			FlowDate:    input.FlowDate,
			ExternalRef: input.ExternalRef,
			CreatedAt:   time.Now(),
		}
		if err := s.FlowRepo.Create(ctx, flow); err != nil {
			return err
		}

		position.Units = domain.QuantizeUnits(currentUnits.Add(unitsDelta))
		position.NAVPerUnit = navPerUnit
		position.LastValuationDate = nav.Date
		return s.PositionRepo.Update(ctx, position)
	})
	if err != nil {
		return nil, err
	}

	return flow, nil
}

// RebuildPosition recomputes a (client, fund) position from the capital ledger,
// under the same row lock flow application takes. Intended for operator use when a
// position is suspected to have drifted from the ledger sum.
func (s *Service) RebuildPosition(ctx context.Context, clientID, fundID uuid.UUID) (*domain.ClientCapitalAccount, error) {
	var position *domain.ClientCapitalAccount
	err := s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		position, err = s.PositionRepo.GetOrCreateForUpdate(ctx, clientID, fundID)
		if err != nil {
			return err
		}

		flows, err := s.FlowRepo.ListByPosition(ctx, clientID, fundID)
		if err != nil {
			return err
		}

		units := decimal.Zero
		for _, f := range flows {
			units = units.Add(f.UnitsDelta)
		}
		position.Units = domain.QuantizeUnits(units)
		if n := len(flows); n > 0 {
			last := flows[n-1]
			position.NAVPerUnit = last.NAVAtFlow
			position.LastValuationDate = last.FlowDate
		}
		return s.PositionRepo.Update(ctx, position)
	})
	if err != nil {
		return nil, err
	}

	return position, nil
}

// ManualRef generates a deterministic, human-readable external_ref for
// operator-entered flows, so re-keying the same flow on the same day is a no-op.
func ManualRef(clientID uuid.UUID, strategyCode string, flowDate time.Time) string {
	return fmt.Sprintf("MANUAL-%s-%s-%s", clientID, strategyCode, flowDate.Format("20060102"))
}
