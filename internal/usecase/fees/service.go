package fees

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// Service accrues daily management fees from fund AUM. Accruals are idempotent
// per (fund, expense type, day): re-running a day upserts the amount and resets
// the paid flag, which assumes rate corrections happen before payment.
type Service struct {
	NAVRepo     domain.NAVSnapshotRepository
	ExpenseRepo domain.FundExpenseRepository
}

// NewService creates a new fee accrual Service instance
func NewService(navRepo domain.NAVSnapshotRepository, expenseRepo domain.FundExpenseRepository) *Service {
	return &Service{
		NAVRepo:     navRepo,
		ExpenseRepo: expenseRepo,
	}
}

// AccrueManagementFeeForDay accrues one day's management fee:
// AUM on asOf (from that day's NAV snapshot) x annualRate / 365, rounded to cents.
func (s *Service) AccrueManagementFeeForDay(ctx context.Context, fundID uuid.UUID, asOf time.Time, annualRate decimal.Decimal) (*domain.FundExpense, error) {
	if annualRate.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("annual_rate must be > 0, got %s", annualRate)
	}

	snap, err := s.NAVRepo.GetByDate(ctx, fundID, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, &domain.DataGapError{FundID: fundID, Date: asOf, What: "NAV snapshot"}
		}
		return nil, err
	}

	if snap.AUM.IsNegative() {
		return nil, domain.NewValidationError("AUM must be >= 0, snapshot %s has %s",
			snap.Date.Format("2006-01-02"), snap.AUM)
	}

	dailyFee := domain.QuantizeUSD(snap.AUM.Mul(annualRate).Div(daysPerYear))

	expense := &domain.FundExpense{
		ID:          uuid.New(),
		FundID:      fundID,
		ExpenseType: domain.ExpenseTypeManagementFee,
		AsOfDate:    snap.Date,
		Amount:      dailyFee,
		IsPaid:      false,
		CreatedAt:   time.Now(),
	}
	if err := s.ExpenseRepo.Upsert(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// MarkPaid flags an accrued expense as paid out of broker cash.
func (s *Service) MarkPaid(ctx context.Context, expenseID uuid.UUID, paidAt time.Time) error {
	return s.ExpenseRepo.MarkPaid(ctx, expenseID, paidAt)
}
