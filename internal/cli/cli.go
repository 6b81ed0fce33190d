package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/quantcap/fundledger-backend/internal/adapter/broker/alpaca"
	mdalpaca "github.com/quantcap/fundledger-backend/internal/adapter/marketdata/alpaca"
	"github.com/quantcap/fundledger-backend/internal/adapter/repository/postgres"
	"github.com/quantcap/fundledger-backend/internal/config"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/usecase/capitalflow"
	"github.com/quantcap/fundledger-backend/internal/usecase/fees"
	"github.com/quantcap/fundledger-backend/internal/usecase/nav"
	"github.com/quantcap/fundledger-backend/internal/usecase/pricing"
	"github.com/quantcap/fundledger-backend/internal/usecase/rollup"
)

// Register registers all management commands.
func Register(c *subcommands.Commander) {
	c.Register(&applyFlowCmd{}, "ledger")
	c.Register(&rebuildPositionCmd{}, "ledger")
	c.Register(&computeNAVCmd{}, "valuation")
	c.Register(&accrueFeeCmd{}, "valuation")
	c.Register(&markFeePaidCmd{}, "valuation")
	c.Register(&monthlySnapshotCmd{}, "reporting")
}

// runtime wires configuration, repositories and adapters for one command run.
type runtime struct {
	cfg       config.Config
	db        *postgres.DB
	funds     domain.FundRepository
	clients   domain.ClientRepository
	flows     domain.CapitalFlowRepository
	positions domain.PositionRepository
	navs      domain.NAVSnapshotRepository
	expenses  domain.FundExpenseRepository
	snapshots domain.MonthlySnapshotRepository
}

func openRuntime() (*runtime, error) {
	cfg := config.Load()

	db, err := postgres.NewDB(cfg.DBConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &runtime{
		cfg:       cfg,
		db:        db,
		funds:     postgres.NewFundRepository(db),
		clients:   postgres.NewClientRepository(db),
		flows:     postgres.NewCapitalFlowRepository(db),
		positions: postgres.NewPositionRepository(db),
		navs:      postgres.NewNAVSnapshotRepository(db),
		expenses:  postgres.NewFundExpenseRepository(db),
		snapshots: postgres.NewMonthlySnapshotRepository(db),
	}, nil
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}

func (rt *runtime) flowService() *capitalflow.Service {
	return capitalflow.NewService(rt.flows, rt.positions, pricing.NewResolver(rt.navs), rt.db)
}

func (rt *runtime) navService() *nav.Service {
	broker := alpaca.NewValuationService(rt.cfg.AlpacaKeyID, rt.cfg.AlpacaSecretKey, rt.cfg.AlpacaBaseURL)
	return nav.NewService(rt.funds, rt.positions, rt.navs, broker)
}

func (rt *runtime) rollupService() *rollup.Service {
	prices := mdalpaca.NewPriceSeriesProvider(rt.cfg.AlpacaKeyID, rt.cfg.AlpacaSecretKey)
	defaults := rollup.Defaults{
		BenchmarkSymbol: rt.cfg.Defaults.BenchmarkSymbol,
		StrategyVersion: rt.cfg.Defaults.StrategyVersion,
	}
	return rollup.NewService(rt.navs, rt.positions, rt.expenses, rt.snapshots, prices, defaults)
}

func (rt *runtime) feeService() *fees.Service {
	return fees.NewService(rt.navs, rt.expenses)
}

func (rt *runtime) resolveFund(ctx context.Context, strategyCode string) (*domain.Fund, error) {
	if strategyCode == "" {
		return nil, fmt.Errorf("-fund is required")
	}
	fund, err := rt.funds.GetByStrategyCode(ctx, strategyCode)
	if err != nil {
		return nil, fmt.Errorf("fund %q: %w", strategyCode, err)
	}
	return fund, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(string(b))
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
