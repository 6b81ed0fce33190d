package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientCapitalAccount is the one mutable row per (client, fund): the current unit
// balance for the pair. It is a materialized aggregate of the capital ledger — it must
// always equal the sum of UnitsDelta across the pair's CapitalFlow rows, and is
// recomputable from the ledger if corrupted.
type ClientCapitalAccount struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	FundID            uuid.UUID
	Units             decimal.Decimal
	NAVPerUnit        decimal.Decimal // last price used, informational
	LastValuationDate time.Time
}
