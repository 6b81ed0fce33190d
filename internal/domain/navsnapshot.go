package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingPolicy selects which NAV snapshot prices a flow when no exact-date
// snapshot exists
type PricingPolicy string

const (
	// PricingPolicyExact requires a NAV snapshot exactly on the flow date
	PricingPolicyExact PricingPolicy = "EXACT"
	// PricingPolicyPrev uses the most recent NAV snapshot on or before the flow date
	PricingPolicyPrev PricingPolicy = "PREV"
)

// NAVSnapshot is the persisted valuation of a fund on a date: NAV per unit, total
// outstanding units and AUM, plus optional broker cash/exposure figures.
// One row per (fund, date); written by upsert, never deleted.
// Invariant: NAVPerUnit > 0 whenever TotalUnits > 0.
type NAVSnapshot struct {
	ID            uuid.UUID
	FundID        uuid.UUID
	Date          time.Time
	NAVPerUnit    decimal.Decimal
	TotalUnits    decimal.Decimal
	AUM           decimal.Decimal // USD
	CashBalance   *decimal.Decimal
	GrossExposure *decimal.Decimal
	NetExposure   *decimal.Decimal
	CreatedAt     time.Time
}

// MonthlySnapshot is a fund's canonical performance summary for one month, derived
// from NAV snapshots, positions and expenses at generation time. One row per
// (fund, month-end date); safe to regenerate by upsert.
type MonthlySnapshot struct {
	ID              uuid.UUID
	FundID          uuid.UUID
	AsOfMonth       time.Time // month-end date
	NAVBOM          decimal.Decimal
	NAVEOM          decimal.Decimal
	AUMEOM          decimal.Decimal
	FundReturn      decimal.Decimal
	BenchmarkSymbol string
	BenchmarkReturn *decimal.Decimal // nil when benchmark data was unavailable
	ExcessReturn    *decimal.Decimal
	StrategyVersion string
	ModelChange     bool
	Metrics         map[string]string // drawdown, period fees, etc.
	CreatedAt       time.Time
}
