package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// capitalFlowRepository implements domain.CapitalFlowRepository
type capitalFlowRepository struct {
	db *DB
}

// NewCapitalFlowRepository creates a new capital flow repository
func NewCapitalFlowRepository(db *DB) domain.CapitalFlowRepository {
	return &capitalFlowRepository{db: db}
}

// Create appends a new flow to the ledger. The unique constraint on
// (fund_id, client_id, external_ref) is the idempotency boundary; a duplicate key
// here means the caller skipped the idempotency lookup.
func (r *capitalFlowRepository) Create(ctx context.Context, flow *domain.CapitalFlow) error {
	query := `
		INSERT INTO capital_flows (id, client_id, fund_id, flow_type, amount, nav_at_flow, units_delta, flow_date, external_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		flow.ID,
		flow.ClientID,
		flow.FundID,
		string(flow.FlowType),
		flow.Amount.String(),
		flow.NAVAtFlow.String(),
		flow.UnitsDelta.String(),
		flow.FlowDate,
		flow.ExternalRef,
		flow.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert capital flow: %w", err)
	}

	return nil
}

// GetByExternalRef retrieves the flow recorded for (fund, client, externalRef)
func (r *capitalFlowRepository) GetByExternalRef(ctx context.Context, fundID, clientID uuid.UUID, externalRef string) (*domain.CapitalFlow, error) {
	query := `
		SELECT id, client_id, fund_id, flow_type, amount, nav_at_flow, units_delta, flow_date, external_ref, created_at
		FROM capital_flows
		WHERE fund_id = $1 AND client_id = $2 AND external_ref = $3
	`

	flow, err := scanFlow(r.db.conn(ctx).QueryRowContext(ctx, query, fundID, clientID, externalRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get capital flow by external ref: %w", err)
	}

	return flow, nil
}

// ListByPosition retrieves all flows for a (client, fund) pair, oldest first
func (r *capitalFlowRepository) ListByPosition(ctx context.Context, clientID, fundID uuid.UUID) ([]*domain.CapitalFlow, error) {
	query := `
		SELECT id, client_id, fund_id, flow_type, amount, nav_at_flow, units_delta, flow_date, external_ref, created_at
		FROM capital_flows
		WHERE client_id = $1 AND fund_id = $2
		ORDER BY flow_date ASC, created_at ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, clientID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list capital flows: %w", err)
	}
	defer rows.Close()

	var flows []*domain.CapitalFlow
	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capital flow: %w", err)
		}
		flows = append(flows, flow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate capital flows: %w", err)
	}

	return flows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (*domain.CapitalFlow, error) {
	var flow domain.CapitalFlow
	var amountStr, navStr, deltaStr string

	err := row.Scan(
		&flow.ID,
		&flow.ClientID,
		&flow.FundID,
		&flow.FlowType,
		&amountStr,
		&navStr,
		&deltaStr,
		&flow.FlowDate,
		&flow.ExternalRef,
		&flow.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if flow.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if flow.NAVAtFlow, err = decimal.NewFromString(navStr); err != nil {
		return nil, fmt.Errorf("failed to parse nav_at_flow: %w", err)
	}
	if flow.UnitsDelta, err = decimal.NewFromString(deltaStr); err != nil {
		return nil, fmt.Errorf("failed to parse units_delta: %w", err)
	}

	return &flow, nil
}
