package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type markFeePaidCmd struct {
	id string
}

func (*markFeePaidCmd) Name() string     { return "mark-fee-paid" }
func (*markFeePaidCmd) Synopsis() string { return "mark an accrued fund expense as paid" }
func (*markFeePaidCmd) Usage() string {
	return `fundledger mark-fee-paid -id <expense-uuid>

  Flags an accrued expense as paid out of broker cash, stamping the payment time.
`
}

func (c *markFeePaidCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Fund expense ID (UUID)")
}

func (c *markFeePaidCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	expenseID, err := uuid.Parse(c.id)
	if err != nil {
		return fail(fmt.Errorf("invalid -id: %w", err))
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}
	defer rt.Close()

	paidAt := time.Now()
	if err := rt.feeService().MarkPaid(ctx, expenseID, paidAt); err != nil {
		return fail(err)
	}

	printJSON(map[string]any{
		"expense_id": expenseID,
		"is_paid":    true,
		"paid_at":    paidAt.Format(time.RFC3339),
	})
	return subcommands.ExitSuccess
}
