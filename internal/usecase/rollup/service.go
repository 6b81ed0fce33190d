package rollup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/logger"
	"github.com/shopspring/decimal"
)

// Defaults carries the configured fallbacks for snapshot generation, passed in
// explicitly so behavior is reproducible under test.
type Defaults struct {
	BenchmarkSymbol string
	StrategyVersion string
}

// GenerateInput represents the input for generating a monthly snapshot
type GenerateInput struct {
	FundID          uuid.UUID
	Year            int
	Month           int
	BenchmarkSymbol string // defaults to Defaults.BenchmarkSymbol
	StrategyVersion string // defaults to Defaults.StrategyVersion
	ModelChange     bool
}

// Service computes a fund's monthly performance summary from NAV snapshot
// boundaries, the unit ledger and accrued expenses, and upserts it keyed by
// (fund, month-end date). Regenerating a month replaces prior figures.
type Service struct {
	NAVRepo      domain.NAVSnapshotRepository
	PositionRepo domain.PositionRepository
	ExpenseRepo  domain.FundExpenseRepository
	SnapshotRepo domain.MonthlySnapshotRepository
	Prices       domain.PriceSeriesProvider
	Defaults     Defaults
}

// NewService creates a new rollup Service instance
func NewService(
	navRepo domain.NAVSnapshotRepository,
	positionRepo domain.PositionRepository,
	expenseRepo domain.FundExpenseRepository,
	snapshotRepo domain.MonthlySnapshotRepository,
	prices domain.PriceSeriesProvider,
	defaults Defaults,
) *Service {
	return &Service{
		NAVRepo:      navRepo,
		PositionRepo: positionRepo,
		ExpenseRepo:  expenseRepo,
		SnapshotRepo: snapshotRepo,
		Prices:       prices,
		Defaults:     defaults,
	}
}

// Generate computes and upserts the monthly snapshot for a fund/month.
// Both NAV boundaries (latest on/before month start and month end) are required;
// the benchmark fetch is not — a transient market-data outage degrades the
// benchmark fields to nil instead of blocking performance reporting.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (*domain.MonthlySnapshot, error) {
	if input.Month < 1 || input.Month > 12 {
		return nil, domain.NewValidationError("month must be in 1..12, got %d", input.Month)
	}
	periodStart, periodEnd := MonthBounds(input.Year, input.Month)

	navBOM, err := s.NAVRepo.GetLatestOnOrBefore(ctx, input.FundID, periodStart)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, &domain.DataGapError{FundID: input.FundID, Date: periodStart, What: "NAV snapshot on/before month start"}
		}
		return nil, err
	}
	navEOM, err := s.NAVRepo.GetLatestOnOrBefore(ctx, input.FundID, periodEnd)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, &domain.DataGapError{FundID: input.FundID, Date: periodEnd, What: "NAV snapshot on/before month end"}
		}
		return nil, err
	}

	if navBOM.NAVPerUnit.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("nav_bom must be > 0, snapshot %s has %s",
			navBOM.Date.Format("2006-01-02"), navBOM.NAVPerUnit)
	}
	fundReturn := domain.QuantizeReturn(navEOM.NAVPerUnit.Div(navBOM.NAVPerUnit).Sub(decimal.NewFromInt(1)))

	totalUnits, err := s.PositionRepo.SumUnitsByFund(ctx, input.FundID)
	if err != nil {
		return nil, err
	}
	if totalUnits.IsNegative() {
		return nil, domain.NewValidationError("fund %s has negative total units %s", input.FundID, totalUnits)
	}
	aumEOM := domain.QuantizeUSD(navEOM.NAVPerUnit.Mul(totalUnits))

	benchmarkSymbol := input.BenchmarkSymbol
	if benchmarkSymbol == "" {
		benchmarkSymbol = s.Defaults.BenchmarkSymbol
	}
	strategyVersion := input.StrategyVersion
	if strategyVersion == "" {
		strategyVersion = s.Defaults.StrategyVersion
	}

	benchmarkReturn, excessReturn := s.benchmarkReturns(ctx, benchmarkSymbol, periodStart, periodEnd, fundReturn)

	metrics, err := s.buildMetrics(ctx, input.FundID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.MonthlySnapshot{
		ID:              uuid.New(),
		FundID:          input.FundID,
		AsOfMonth:       periodEnd,
		NAVBOM:          navBOM.NAVPerUnit,
		NAVEOM:          navEOM.NAVPerUnit,
		AUMEOM:          aumEOM,
		FundReturn:      fundReturn,
		BenchmarkSymbol: benchmarkSymbol,
		BenchmarkReturn: benchmarkReturn,
		ExcessReturn:    excessReturn,
		StrategyVersion: strategyVersion,
		ModelChange:     input.ModelChange,
		Metrics:         metrics,
		CreatedAt:       time.Now(),
	}
	if err := s.SnapshotRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// benchmarkReturns fetches the benchmark period return. Any failure or unusable
// series yields nil returns rather than an error.
func (s *Service) benchmarkReturns(ctx context.Context, symbol string, start, end time.Time, fundReturn decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
	closes, err := s.Prices.GetDailyClose(ctx, symbol, start, end.AddDate(0, 0, 1))
	if err != nil {
		logger.Warn("benchmark fetch failed, degrading to null benchmark fields", logger.Fields{
			"symbol": symbol,
			"start":  start.Format("2006-01-02"),
			"end":    end.Format("2006-01-02"),
			"error":  err.Error(),
		})
		return nil, nil
	}
	if len(closes) < 2 || closes[0].Close.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	first := closes[0].Close
	last := closes[len(closes)-1].Close
	benchmarkReturn := domain.QuantizeReturn(last.Div(first).Sub(decimal.NewFromInt(1)))
	excessReturn := domain.QuantizeReturn(fundReturn.Sub(benchmarkReturn))
	return &benchmarkReturn, &excessReturn
}

// buildMetrics assembles the free-form metrics blob: management fees accrued over
// the period and the max drawdown of the month's NAV series when it has enough points.
func (s *Service) buildMetrics(ctx context.Context, fundID uuid.UUID, start, end time.Time) (map[string]string, error) {
	metrics := map[string]string{}

	fees, err := s.ExpenseRepo.SumByTypeAndRange(ctx, fundID, domain.ExpenseTypeManagementFee, start, end)
	if err != nil {
		return nil, err
	}
	metrics["management_fees"] = domain.QuantizeUSD(fees).String()

	snaps, err := s.NAVRepo.ListRange(ctx, fundID, start, end)
	if err != nil {
		return nil, err
	}
	series := make([]decimal.Decimal, 0, len(snaps))
	for _, snap := range snaps {
		series = append(series, snap.NAVPerUnit)
	}
	if dd, ok := MaxDrawdown(series); ok {
		metrics["max_drawdown"] = dd.String()
	}

	return metrics, nil
}

// MonthBounds returns the first and last day of a month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, end
}

// MaxDrawdown returns the minimum drawdown (a negative number, e.g. -0.12) of a
// NAV series in order, quantized like a return. ok is false when the series has
// fewer than two points.
func MaxDrawdown(series []decimal.Decimal) (decimal.Decimal, bool) {
	if len(series) < 2 {
		return decimal.Zero, false
	}

	runningMax := series[0]
	minDD := decimal.Zero
	for _, nav := range series[1:] {
		if nav.GreaterThan(runningMax) {
			runningMax = nav
			continue
		}
		if runningMax.LessThanOrEqual(decimal.Zero) {
			continue
		}
		dd := nav.Div(runningMax).Sub(decimal.NewFromInt(1))
		if dd.LessThan(minDD) {
			minDD = dd
		}
	}
	return domain.QuantizeReturn(minDD), true
}
