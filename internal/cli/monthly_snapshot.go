package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/quantcap/fundledger-backend/internal/usecase/rollup"
)

type monthlySnapshotCmd struct {
	fund            string
	year            int
	month           int
	benchmark       string
	strategyVersion string
	modelChange     bool
}

func (*monthlySnapshotCmd) Name() string     { return "monthly-snapshot" }
func (*monthlySnapshotCmd) Synopsis() string { return "generate a fund's monthly performance snapshot" }
func (*monthlySnapshotCmd) Usage() string {
	return `fundledger monthly-snapshot -fund <strategy-code> -year <yyyy> -month <1-12> [-benchmark <symbol>] [-strategy-version <tag>] [-model-change]

  Computes fund return, month-end AUM and benchmark comparison for the month and
  upserts the monthly snapshot. Regenerating a month replaces prior figures.
`
}

func (c *monthlySnapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "Fund strategy code")
	f.IntVar(&c.year, "year", 0, "Year (e.g. 2024)")
	f.IntVar(&c.month, "month", 0, "Month (1-12)")
	f.StringVar(&c.benchmark, "benchmark", "", "Benchmark symbol (defaults to configured symbol)")
	f.StringVar(&c.strategyVersion, "strategy-version", "", "Strategy version tag (defaults to configured version)")
	f.BoolVar(&c.modelChange, "model-change", false, "Flag that the model/logic changed this month")
}

func (c *monthlySnapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}
	defer rt.Close()

	fund, err := rt.resolveFund(ctx, c.fund)
	if err != nil {
		return fail(err)
	}

	snapshot, err := rt.rollupService().Generate(ctx, rollup.GenerateInput{
		FundID:          fund.ID,
		Year:            c.year,
		Month:           c.month,
		BenchmarkSymbol: c.benchmark,
		StrategyVersion: c.strategyVersion,
		ModelChange:     c.modelChange,
	})
	if err != nil {
		return fail(err)
	}

	out := map[string]any{
		"snapshot_id": snapshot.ID,
		"fund":        fund.StrategyCode,
		"as_of_month": snapshot.AsOfMonth.Format("2006-01-02"),
		"fund_return": snapshot.FundReturn.String(),
		"aum_eom":     snapshot.AUMEOM.String(),
		"metrics":     snapshot.Metrics,
	}
	if snapshot.BenchmarkReturn != nil {
		out["benchmark_return"] = snapshot.BenchmarkReturn.String()
		out["excess_return"] = snapshot.ExcessReturn.String()
	} else {
		out["benchmark_return"] = nil
		out["excess_return"] = nil
	}
	printJSON(out)
	return subcommands.ExitSuccess
}
