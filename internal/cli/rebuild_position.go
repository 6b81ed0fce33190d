package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type rebuildPositionCmd struct {
	client string
	fund   string
}

func (*rebuildPositionCmd) Name() string     { return "rebuild-position" }
func (*rebuildPositionCmd) Synopsis() string { return "recompute a client position from the capital ledger" }
func (*rebuildPositionCmd) Usage() string {
	return `fundledger rebuild-position -client <uuid> -fund <strategy-code>

  Replays the (client, fund) capital ledger and rewrites the position's unit
  balance. Use when a position is suspected to have drifted from the ledger sum.
`
}

func (c *rebuildPositionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.client, "client", "", "Client ID (UUID)")
	f.StringVar(&c.fund, "fund", "", "Fund strategy code")
}

func (c *rebuildPositionCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	clientID, err := uuid.Parse(c.client)
	if err != nil {
		return fail(fmt.Errorf("invalid -client: %w", err))
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

	position, err := rt.flowService().RebuildPosition(ctx, clientID, fund.ID)
	if err != nil {
		return fail(err)
	}

	printJSON(map[string]any{
		"client_id":           position.ClientID,
		"fund":                fund.StrategyCode,
		"units":               position.Units.String(),
		"nav_per_unit":        position.NAVPerUnit.String(),
		"last_valuation_date": position.LastValuationDate.Format("2006-01-02"),
	})
	return subcommands.ExitSuccess
}
