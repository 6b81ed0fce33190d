package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// navSnapshotRepository implements domain.NAVSnapshotRepository
type navSnapshotRepository struct {
	db *DB
}

// NewNAVSnapshotRepository creates a new NAV snapshot repository
func NewNAVSnapshotRepository(db *DB) domain.NAVSnapshotRepository {
	return &navSnapshotRepository{db: db}
}

// Upsert inserts or overwrites the snapshot keyed by (fund, date). The existing
// row's ID is kept on overwrite so re-pricing a day does not churn identifiers.
func (r *navSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.NAVSnapshot) error {
	query := `
		INSERT INTO nav_snapshots (id, fund_id, date, nav_per_unit, total_units, aum, cash_balance, gross_exposure, net_exposure, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (fund_id, date) DO UPDATE
		SET nav_per_unit = EXCLUDED.nav_per_unit,
		    total_units = EXCLUDED.total_units,
		    aum = EXCLUDED.aum,
		    cash_balance = EXCLUDED.cash_balance,
		    gross_exposure = EXCLUDED.gross_exposure,
		    net_exposure = EXCLUDED.net_exposure
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRowContext(ctx, query,
		snapshot.ID,
		snapshot.FundID,
		snapshot.Date,
		snapshot.NAVPerUnit.String(),
		snapshot.TotalUnits.String(),
		snapshot.AUM.String(),
		nullDecimal(snapshot.CashBalance),
		nullDecimal(snapshot.GrossExposure),
		nullDecimal(snapshot.NetExposure),
		snapshot.CreatedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert NAV snapshot: %w", err)
	}

	return nil
}

// GetByDate retrieves the snapshot exactly on the given date
func (r *navSnapshotRepository) GetByDate(ctx context.Context, fundID uuid.UUID, date time.Time) (*domain.NAVSnapshot, error) {
	query := `
		SELECT id, fund_id, date, nav_per_unit, total_units, aum, cash_balance, gross_exposure, net_exposure, created_at
		FROM nav_snapshots
		WHERE fund_id = $1 AND date = $2
	`
	return r.getOne(ctx, query, fundID, date)
}

// GetLatestOnOrBefore retrieves the most recent snapshot with date <= the given date
func (r *navSnapshotRepository) GetLatestOnOrBefore(ctx context.Context, fundID uuid.UUID, date time.Time) (*domain.NAVSnapshot, error) {
	query := `
		SELECT id, fund_id, date, nav_per_unit, total_units, aum, cash_balance, gross_exposure, net_exposure, created_at
		FROM nav_snapshots
		WHERE fund_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, fundID, date)
}

// ListRange retrieves snapshots with start <= date <= end, oldest first
func (r *navSnapshotRepository) ListRange(ctx context.Context, fundID uuid.UUID, start, end time.Time) ([]*domain.NAVSnapshot, error) {
	query := `
		SELECT id, fund_id, date, nav_per_unit, total_units, aum, cash_balance, gross_exposure, net_exposure, created_at
		FROM nav_snapshots
		WHERE fund_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, fundID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list NAV snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.NAVSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan NAV snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate NAV snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *navSnapshotRepository) getOne(ctx context.Context, query string, args ...any) (*domain.NAVSnapshot, error) {
	snapshot, err := scanSnapshot(r.db.conn(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get NAV snapshot: %w", err)
	}
	return snapshot, nil
}

func scanSnapshot(row rowScanner) (*domain.NAVSnapshot, error) {
	var snapshot domain.NAVSnapshot
	var navStr, unitsStr, aumStr string
	var cashStr, grossStr, netStr sql.NullString

	err := row.Scan(
		&snapshot.ID,
		&snapshot.FundID,
		&snapshot.Date,
		&navStr,
		&unitsStr,
		&aumStr,
		&cashStr,
		&grossStr,
		&netStr,
		&snapshot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if snapshot.NAVPerUnit, err = decimal.NewFromString(navStr); err != nil {
		return nil, fmt.Errorf("failed to parse nav_per_unit: %w", err)
	}
	if snapshot.TotalUnits, err = decimal.NewFromString(unitsStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_units: %w", err)
	}
	if snapshot.AUM, err = decimal.NewFromString(aumStr); err != nil {
		return nil, fmt.Errorf("failed to parse aum: %w", err)
	}
	if snapshot.CashBalance, err = parseNullDecimal(cashStr); err != nil {
		return nil, fmt.Errorf("failed to parse cash_balance: %w", err)
	}
	if snapshot.GrossExposure, err = parseNullDecimal(grossStr); err != nil {
		return nil, fmt.Errorf("failed to parse gross_exposure: %w", err)
	}
	if snapshot.NetExposure, err = parseNullDecimal(netStr); err != nil {
		return nil, fmt.Errorf("failed to parse net_exposure: %w", err)
	}

	return &snapshot, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
