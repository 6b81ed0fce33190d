package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
)

// fundRepository implements domain.FundRepository
type fundRepository struct {
	db *DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *DB) domain.FundRepository {
	return &fundRepository{db: db}
}

const fundColumns = `id, name, strategy_code, status, custodian, custodian_account_id, custodian_account_masked, base_currency, inception_date, created_at`

// GetByID retrieves a fund by its ID
func (r *fundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	query := `
		SELECT ` + fundColumns + `
		FROM funds
		WHERE id = $1
	`
	return r.scanFund(r.db.conn(ctx).QueryRowContext(ctx, query, id))
}

// GetByStrategyCode retrieves a fund by its unique strategy code
func (r *fundRepository) GetByStrategyCode(ctx context.Context, strategyCode string) (*domain.Fund, error) {
	query := `
		SELECT ` + fundColumns + `
		FROM funds
		WHERE strategy_code = $1
	`
	return r.scanFund(r.db.conn(ctx).QueryRowContext(ctx, query, strategyCode))
}

func (r *fundRepository) scanFund(row *sql.Row) (*domain.Fund, error) {
	var fund domain.Fund
	var masked sql.NullString

	err := row.Scan(
		&fund.ID,
		&fund.Name,
		&fund.StrategyCode,
		&fund.Status,
		&fund.Custodian,
		&fund.CustodianAccountID,
		&masked,
		&fund.BaseCurrency,
		&fund.InceptionDate,
		&fund.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	if masked.Valid {
		fund.CustodianAccountMasked = masked.String
	}

	return &fund, nil
}
