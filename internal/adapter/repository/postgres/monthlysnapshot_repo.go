package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantcap/fundledger-backend/internal/domain"
)

// monthlySnapshotRepository implements domain.MonthlySnapshotRepository
type monthlySnapshotRepository struct {
	db *DB
}

// NewMonthlySnapshotRepository creates a new monthly snapshot repository
func NewMonthlySnapshotRepository(db *DB) domain.MonthlySnapshotRepository {
	return &monthlySnapshotRepository{db: db}
}

// Upsert inserts or overwrites the snapshot keyed by (fund, as_of_month),
// preserving the existing row's ID on overwrite
func (r *monthlySnapshotRepository) Upsert(ctx context.Context, snapshot *domain.MonthlySnapshot) error {
	metrics := snapshot.Metrics
	if metrics == nil {
		metrics = map[string]string{}
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot metrics: %w", err)
	}

	query := `
		INSERT INTO monthly_snapshots (id, fund_id, as_of_month, nav_bom, nav_eom, aum_eom, fund_return, benchmark_symbol, benchmark_return, excess_return, strategy_version, model_change, metrics_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (fund_id, as_of_month) DO UPDATE
		SET nav_bom = EXCLUDED.nav_bom,
		    nav_eom = EXCLUDED.nav_eom,
		    aum_eom = EXCLUDED.aum_eom,
		    fund_return = EXCLUDED.fund_return,
		    benchmark_symbol = EXCLUDED.benchmark_symbol,
		    benchmark_return = EXCLUDED.benchmark_return,
		    excess_return = EXCLUDED.excess_return,
		    strategy_version = EXCLUDED.strategy_version,
		    model_change = EXCLUDED.model_change,
		    metrics_json = EXCLUDED.metrics_json
		RETURNING id
	`

	err = r.db.conn(ctx).QueryRowContext(ctx, query,
		snapshot.ID,
		snapshot.FundID,
		snapshot.AsOfMonth,
		snapshot.NAVBOM.String(),
		snapshot.NAVEOM.String(),
		snapshot.AUMEOM.String(),
		snapshot.FundReturn.String(),
		snapshot.BenchmarkSymbol,
		nullDecimal(snapshot.BenchmarkReturn),
		nullDecimal(snapshot.ExcessReturn),
		snapshot.StrategyVersion,
		snapshot.ModelChange,
		metricsJSON,
		snapshot.CreatedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly snapshot: %w", err)
	}

	return nil
}
