package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRecordNotFound is returned by repositories when a row does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ValidationError indicates malformed or out-of-range input.
// Callers must fix the input; retrying will not help.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PricingError indicates no NAV snapshot could be resolved under the requested policy.
// Retryable once a snapshot for the fund/date exists.
type PricingError struct {
	FundID uuid.UUID
	Date   time.Time
	Policy PricingPolicy
	Msg    string
}

func (e *PricingError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("no NAV snapshot for fund=%s date=%s under policy %s",
		e.FundID, e.Date.Format("2006-01-02"), e.Policy)
}

// DataGapError indicates a missing NAV snapshot boundary for a period computation.
// The caller must backfill pricing data first.
type DataGapError struct {
	FundID uuid.UUID
	Date   time.Time
	What   string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("missing %s for fund=%s date=%s", e.What, e.FundID, e.Date.Format("2006-01-02"))
}

// InsufficientUnitsError indicates a redemption would drive a position's units negative.
type InsufficientUnitsError struct {
	CurrentUnits decimal.Decimal
	RedeemUnits  decimal.Decimal
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("redemption exceeds units: current_units=%s, units_to_redeem=%s",
		e.CurrentUnits, e.RedeemUnits)
}

// BrokerUnavailableError indicates the external broker valuation call failed.
// Not retried inside the core; retry policy belongs to the caller.
type BrokerUnavailableError struct {
	Custodian Custodian
	Err       error
}

func (e *BrokerUnavailableError) Error() string {
	return fmt.Sprintf("broker %s valuation unavailable: %v", e.Custodian, e.Err)
}

func (e *BrokerUnavailableError) Unwrap() error { return e.Err }
