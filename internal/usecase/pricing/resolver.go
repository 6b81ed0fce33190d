package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
)

// Resolver is the single pricing authority: it selects the NAV snapshot that prices
// a capital flow on a given date under a pricing policy. Read-only.
type Resolver struct {
	NAVRepo domain.NAVSnapshotRepository
}

// NewResolver creates a new Resolver instance
func NewResolver(navRepo domain.NAVSnapshotRepository) *Resolver {
	return &Resolver{NAVRepo: navRepo}
}

// Resolve returns the NAV snapshot pricing asOf under the given policy:
//   - EXACT: the snapshot exactly on asOf, or a PricingError
//   - PREV: the most recent snapshot on or before asOf, or a PricingError
func (r *Resolver) Resolve(ctx context.Context, fundID uuid.UUID, asOf time.Time, policy domain.PricingPolicy) (*domain.NAVSnapshot, error) {
	switch policy {
	case domain.PricingPolicyExact:
		snap, err := r.NAVRepo.GetByDate(ctx, fundID, asOf)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, &domain.PricingError{FundID: fundID, Date: asOf, Policy: policy}
			}
			return nil, err
		}
		return snap, nil

	case domain.PricingPolicyPrev:
		snap, err := r.NAVRepo.GetLatestOnOrBefore(ctx, fundID, asOf)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, &domain.PricingError{FundID: fundID, Date: asOf, Policy: policy}
			}
			return nil, err
		}
		return snap, nil
	}

	return nil, domain.NewValidationError("invalid pricing_policy: %s", policy)
}
