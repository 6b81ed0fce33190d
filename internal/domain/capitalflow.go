package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlowType represents the direction of a capital flow
type FlowType string

const (
	FlowTypeSubscription FlowType = "SUBSCRIPTION"
	FlowTypeRedemption   FlowType = "REDEMPTION"
)

// CapitalFlow is one immutable row of the capital ledger: a client subscription
// into or redemption out of a fund, unitized at the NAV in effect for the flow date.
// (fund, client, external_ref) is unique — the idempotency boundary. Rows are never
// updated or deleted after creation.
type CapitalFlow struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	FundID      uuid.UUID
	FlowType    FlowType
	Amount      decimal.Decimal // USD, always positive
	NAVAtFlow   decimal.Decimal // NAV per unit used to convert the amount
	UnitsDelta  decimal.Decimal // signed: positive for subscription, negative for redemption
	FlowDate    time.Time
	ExternalRef string // caller-supplied idempotency key
	CreatedAt   time.Time
}

// Validate ensures the flow adheres to domain rules
func (f *CapitalFlow) Validate() error {
	if f.ExternalRef == "" {
		return NewValidationError("external_ref is required for idempotency")
	}
	if f.Amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("flow amount must be > 0")
	}
	switch f.FlowType {
	case FlowTypeSubscription, FlowTypeRedemption:
	default:
		return NewValidationError("invalid flow_type: %s", f.FlowType)
	}
	return nil
}
