package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/usecase/capitalflow"
	"github.com/shopspring/decimal"
)

type applyFlowCmd struct {
	client          string
	fund            string
	flowType        string
	date            string
	amount          string
	ref             string
	policy          string
	allowOverRedeem bool
}

func (*applyFlowCmd) Name() string     { return "apply-flow" }
func (*applyFlowCmd) Synopsis() string { return "record a client subscription or redemption" }
func (*applyFlowCmd) Usage() string {
	return `fundledger apply-flow -client <uuid> -fund <strategy-code> -type <SUBSCRIPTION|REDEMPTION> -date <YYYY-MM-DD> -amount <usd> [-ref <external-ref>] [-policy <PREV|EXACT>] [-allow-over-redeem]

  Converts a cash flow into fund units at the resolved NAV and records it exactly
  once. Without -ref a deterministic MANUAL-... reference is generated, so
  re-entering the same flow on the same day is a no-op.
`
}

func (c *applyFlowCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.client, "client", "", "Client ID (UUID)")
	f.StringVar(&c.fund, "fund", "", "Fund strategy code")
	f.StringVar(&c.flowType, "type", "", "Flow type: SUBSCRIPTION or REDEMPTION")
	f.StringVar(&c.date, "date", "", "Flow date (YYYY-MM-DD)")
	f.StringVar(&c.amount, "amount", "", "Flow amount in USD")
	f.StringVar(&c.ref, "ref", "", "Idempotency key (defaults to a deterministic manual ref)")
	f.StringVar(&c.policy, "policy", "", "Pricing policy: PREV or EXACT (defaults to PREV)")
	f.BoolVar(&c.allowOverRedeem, "allow-over-redeem", false, "Allow the position's units to go negative")
}

func (c *applyFlowCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	clientID, err := uuid.Parse(c.client)
	if err != nil {
		return fail(fmt.Errorf("invalid -client: %w", err))
	}
	flowDate, err := parseDate(c.date)
	if err != nil {
		return fail(err)
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return fail(fmt.Errorf("invalid -amount: %w", err))
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
	if _, err := rt.clients.GetByID(ctx, clientID); err != nil {
		return fail(fmt.Errorf("client %s: %w", clientID, err))
	}

	ref := c.ref
	if ref == "" {
		ref = capitalflow.ManualRef(clientID, fund.StrategyCode, flowDate)
	}

	flow, err := rt.flowService().Apply(ctx, capitalflow.ApplyInput{
		ClientID:        clientID,
		FundID:          fund.ID,
		FlowType:        domain.FlowType(c.flowType),
		FlowDate:        flowDate,
		Amount:          amount,
		ExternalRef:     ref,
		PricingPolicy:   domain.PricingPolicy(c.policy),
		AllowOverRedeem: c.allowOverRedeem,
	})
	if err != nil {
		return fail(err)
	}

	printJSON(map[string]any{
		"flow_id":      flow.ID,
		"fund":         fund.StrategyCode,
		"client_id":    flow.ClientID,
		"flow_type":    flow.FlowType,
		"amount":       flow.Amount.String(),
		"nav_at_flow":  flow.NAVAtFlow.String(),
		"units_delta":  flow.UnitsDelta.String(),
		"flow_date":    flow.FlowDate.Format("2006-01-02"),
		"external_ref": flow.ExternalRef,
	})
	return subcommands.ExitSuccess
}
