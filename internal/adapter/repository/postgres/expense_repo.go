package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// fundExpenseRepository implements domain.FundExpenseRepository
type fundExpenseRepository struct {
	db *DB
}

// NewFundExpenseRepository creates a new fund expense repository
func NewFundExpenseRepository(db *DB) domain.FundExpenseRepository {
	return &fundExpenseRepository{db: db}
}

// Upsert inserts or overwrites the expense keyed by (fund, expense_type, as_of_date).
// Recomputing a day resets is_paid and paid_at; rate corrections are expected to
// happen before payment only.
func (r *fundExpenseRepository) Upsert(ctx context.Context, expense *domain.FundExpense) error {
	query := `
		INSERT INTO fund_expenses (id, fund_id, expense_type, as_of_date, amount, external_ref, is_paid, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)
		ON CONFLICT (fund_id, expense_type, as_of_date) DO UPDATE
		SET amount = EXCLUDED.amount,
		    external_ref = EXCLUDED.external_ref,
		    is_paid = FALSE,
		    paid_at = NULL
		RETURNING id
	`

	var ref any
	if expense.ExternalRef != "" {
		ref = expense.ExternalRef
	}

	err := r.db.conn(ctx).QueryRowContext(ctx, query,
		expense.ID,
		expense.FundID,
		string(expense.ExpenseType),
		expense.AsOfDate,
		expense.Amount.String(),
		ref,
		expense.IsPaid,
		expense.CreatedAt,
	).Scan(&expense.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert fund expense: %w", err)
	}

	return nil
}

// SumByTypeAndRange sums expense amounts of a type with start <= as_of_date <= end
func (r *fundExpenseRepository) SumByTypeAndRange(ctx context.Context, fundID uuid.UUID, expenseType domain.ExpenseType, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM fund_expenses
		WHERE fund_id = $1 AND expense_type = $2 AND as_of_date >= $3 AND as_of_date <= $4
	`

	var totalStr string
	err := r.db.conn(ctx).QueryRowContext(ctx, query, fundID, string(expenseType), start, end).Scan(&totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum fund expenses: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse expense total: %w", err)
	}

	return total, nil
}

// MarkPaid flags an expense as paid at the given time
func (r *fundExpenseRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE fund_expenses
		SET is_paid = TRUE, paid_at = $2
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark fund expense paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check fund expense update: %w", err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
