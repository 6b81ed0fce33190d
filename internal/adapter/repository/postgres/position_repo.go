package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// positionRepository implements domain.PositionRepository
type positionRepository struct {
	db *DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

// GetOrCreateForUpdate locks the (client, fund) position row for the duration of
// the enclosing transaction, creating it with zero units if absent. The insert is
// race-safe: on a conflicting concurrent insert the ON CONFLICT DO NOTHING falls
// through to the locking select.
func (r *positionRepository) GetOrCreateForUpdate(ctx context.Context, clientID, fundID uuid.UUID) (*domain.ClientCapitalAccount, error) {
	conn := r.db.conn(ctx)

	insertQuery := `
		INSERT INTO client_capital_accounts (id, client_id, fund_id, units, nav_per_unit, last_valuation_date)
		VALUES ($1, $2, $3, 0, 0, NULL)
		ON CONFLICT (client_id, fund_id) DO NOTHING
	`
	if _, err := conn.ExecContext(ctx, insertQuery, uuid.New(), clientID, fundID); err != nil {
		return nil, fmt.Errorf("failed to create position: %w", err)
	}

	selectQuery := `
		SELECT id, client_id, fund_id, units, nav_per_unit, last_valuation_date
		FROM client_capital_accounts
		WHERE client_id = $1 AND fund_id = $2
		FOR UPDATE
	`

	var position domain.ClientCapitalAccount
	var unitsStr, navStr string
	var lastValuation sql.NullTime

	err := conn.QueryRowContext(ctx, selectQuery, clientID, fundID).Scan(
		&position.ID,
		&position.ClientID,
		&position.FundID,
		&unitsStr,
		&navStr,
		&lastValuation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}

	if position.Units, err = decimal.NewFromString(unitsStr); err != nil {
		return nil, fmt.Errorf("failed to parse units: %w", err)
	}
	if position.NAVPerUnit, err = decimal.NewFromString(navStr); err != nil {
		return nil, fmt.Errorf("failed to parse nav_per_unit: %w", err)
	}
	if lastValuation.Valid {
		position.LastValuationDate = lastValuation.Time
	}

	return &position, nil
}

// Update persists the mutable fields of a position
func (r *positionRepository) Update(ctx context.Context, position *domain.ClientCapitalAccount) error {
	query := `
		UPDATE client_capital_accounts
		SET units = $2, nav_per_unit = $3, last_valuation_date = $4
		WHERE id = $1
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		position.ID,
		position.Units.String(),
		position.NAVPerUnit.String(),
		position.LastValuationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	return nil
}

// SumUnitsByFund returns the total outstanding units across all positions of a fund
func (r *positionRepository) SumUnitsByFund(ctx context.Context, fundID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(units), 0)
		FROM client_capital_accounts
		WHERE fund_id = $1
	`

	var totalStr string
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, fundID).Scan(&totalStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum units for fund: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse total units: %w", err)
	}

	return total, nil
}
