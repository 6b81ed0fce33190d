package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type accrueFeeCmd struct {
	fund string
	date string
	rate string
}

func (*accrueFeeCmd) Name() string     { return "accrue-fee" }
func (*accrueFeeCmd) Synopsis() string { return "accrue one day's management fee for a fund" }
func (*accrueFeeCmd) Usage() string {
	return `fundledger accrue-fee -fund <strategy-code> -date <YYYY-MM-DD> [-rate <annual-rate>]

  Accrues the daily management fee from that day's NAV snapshot AUM.
  Re-running a day upserts the amount and resets the paid flag.
`
}

func (c *accrueFeeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "Fund strategy code")
	f.StringVar(&c.date, "date", "", "Accrual date (YYYY-MM-DD)")
	f.StringVar(&c.rate, "rate", "", "Annual fee rate as a decimal, e.g. 0.02 (defaults to configured rate)")
}

func (c *accrueFeeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	asOf, err := parseDate(c.date)
	if err != nil {
		return fail(err)
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}
	defer rt.Close()

	rate := rt.cfg.Defaults.ManagementFeeAnnualRate
	if c.rate != "" {
		if rate, err = decimal.NewFromString(c.rate); err != nil {
			return fail(fmt.Errorf("invalid -rate: %w", err))
		}
	}

	fund, err := rt.resolveFund(ctx, c.fund)
	if err != nil {
		return fail(err)
	}

	expense, err := rt.feeService().AccrueManagementFeeForDay(ctx, fund.ID, asOf, rate)
	if err != nil {
		return fail(err)
	}

	printJSON(map[string]any{
		"expense_id":   expense.ID,
		"fund":         fund.StrategyCode,
		"expense_type": expense.ExpenseType,
		"as_of_date":   expense.AsOfDate.Format("2006-01-02"),
		"amount":       expense.Amount.String(),
		"is_paid":      expense.IsPaid,
	})
	return subcommands.ExitSuccess
}
