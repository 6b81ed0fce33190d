package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundRepository defines the interface for fund persistence operations
type FundRepository interface {
	// GetByID retrieves a fund by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Fund, error)

	// GetByStrategyCode retrieves a fund by its unique strategy code
	GetByStrategyCode(ctx context.Context, strategyCode string) (*Fund, error)
}

// ClientRepository defines the interface for client persistence operations
type ClientRepository interface {
	// GetByID retrieves a client by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
}

// CapitalFlowRepository defines the interface for capital ledger persistence.
// The ledger is append-only: there is no update or delete.
type CapitalFlowRepository interface {
	// Create appends a new flow to the ledger
	Create(ctx context.Context, flow *CapitalFlow) error

	// GetByExternalRef retrieves the flow recorded for (fund, client, externalRef).
	// Returns ErrRecordNotFound if no such flow exists.
	GetByExternalRef(ctx context.Context, fundID, clientID uuid.UUID, externalRef string) (*CapitalFlow, error)

	// ListByPosition retrieves all flows for a (client, fund) pair, oldest first
	ListByPosition(ctx context.Context, clientID, fundID uuid.UUID) ([]*CapitalFlow, error)
}

// PositionRepository defines the interface for client capital account persistence
type PositionRepository interface {
	// GetOrCreateForUpdate locks the (client, fund) position row exclusively for the
	// duration of the enclosing transaction, creating it with zero units if absent.
	// Must be called inside UnitOfWork.WithinTx.
	GetOrCreateForUpdate(ctx context.Context, clientID, fundID uuid.UUID) (*ClientCapitalAccount, error)

	// Update persists the mutable fields of a position
	Update(ctx context.Context, position *ClientCapitalAccount) error

	// SumUnitsByFund returns the total outstanding units across all positions of a fund
	SumUnitsByFund(ctx context.Context, fundID uuid.UUID) (decimal.Decimal, error)
}

// NAVSnapshotRepository defines the interface for NAV snapshot persistence
type NAVSnapshotRepository interface {
	// Upsert inserts or overwrites the snapshot keyed by (fund, date)
	Upsert(ctx context.Context, snapshot *NAVSnapshot) error

	// GetByDate retrieves the snapshot exactly on the given date.
	// Returns ErrRecordNotFound if none exists.
	GetByDate(ctx context.Context, fundID uuid.UUID, date time.Time) (*NAVSnapshot, error)

	// GetLatestOnOrBefore retrieves the most recent snapshot with date <= the given date.
	// Returns ErrRecordNotFound if none exists.
	GetLatestOnOrBefore(ctx context.Context, fundID uuid.UUID, date time.Time) (*NAVSnapshot, error)

	// ListRange retrieves snapshots with start <= date <= end, oldest first
	ListRange(ctx context.Context, fundID uuid.UUID, start, end time.Time) ([]*NAVSnapshot, error)
}

// FundExpenseRepository defines the interface for fund expense persistence
type FundExpenseRepository interface {
	// Upsert inserts or overwrites the expense keyed by (fund, expense_type, as_of_date)
	Upsert(ctx context.Context, expense *FundExpense) error

	// SumByTypeAndRange sums expense amounts of a type with start <= as_of_date <= end
	SumByTypeAndRange(ctx context.Context, fundID uuid.UUID, expenseType ExpenseType, start, end time.Time) (decimal.Decimal, error)

	// MarkPaid flags an expense as paid at the given time.
	// Returns ErrRecordNotFound if the expense does not exist.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

// MonthlySnapshotRepository defines the interface for monthly snapshot persistence
type MonthlySnapshotRepository interface {
	// Upsert inserts or overwrites the snapshot keyed by (fund, as_of_month),
	// preserving the existing row's ID on overwrite
	Upsert(ctx context.Context, snapshot *MonthlySnapshot) error
}

// UnitOfWork confines a logical operation to a single database transaction.
// Repository calls made with the context passed to fn share that transaction;
// fn returning an error rolls everything back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
