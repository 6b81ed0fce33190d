package cli

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"
)

type computeNAVCmd struct {
	fund string
	date string
}

func (*computeNAVCmd) Name() string     { return "compute-nav" }
func (*computeNAVCmd) Synopsis() string { return "compute and store a fund's NAV snapshot" }
func (*computeNAVCmd) Usage() string {
	return `fundledger compute-nav -fund <strategy-code> [-date <YYYY-MM-DD>]

  Fetches the broker valuation and stores the NAV snapshot for the date
  (today by default). Re-running a date overwrites it with the latest figures.
`
}

func (c *computeNAVCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "Fund strategy code")
	f.StringVar(&c.date, "date", "", "Valuation date (YYYY-MM-DD, defaults to today)")
}

func (c *computeNAVCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	var asOf *time.Time
	if c.date != "" {
		d, err := parseDate(c.date)
		if err != nil {
			return fail(err)
		}
		asOf = &d
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}
	defer rt.Close()

	fund, err := rt.resolveFund(ctx, c.fund)
	if err != nil {
		return fail(err)
	}

	snapshot, err := rt.navService().ComputeAndSave(ctx, fund.ID, asOf)
	if err != nil {
		return fail(err)
	}

	printJSON(map[string]any{
		"fund":         fund.StrategyCode,
		"date":         snapshot.Date.Format("2006-01-02"),
		"nav_per_unit": snapshot.NAVPerUnit.String(),
		"total_units":  snapshot.TotalUnits.String(),
		"aum":          snapshot.AUM.String(),
	})
	return subcommands.ExitSuccess
}
