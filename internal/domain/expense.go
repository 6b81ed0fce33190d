package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseType represents the kind of fund expense
type ExpenseType string

const (
	ExpenseTypeManagementFee ExpenseType = "MGMT_FEE"
)

// FundExpense is an accrued or crystallized fund expense. One row per
// (fund, expense_type, as_of_date); re-running an accrual for the same day
// upserts rather than duplicates.
type FundExpense struct {
	ID          uuid.UUID
	FundID      uuid.UUID
	ExpenseType ExpenseType
	AsOfDate    time.Time
	Amount      decimal.Decimal // USD
	ExternalRef string          // optional payout transfer reference
	IsPaid      bool
	PaidAt      *time.Time
	CreatedAt   time.Time
}
