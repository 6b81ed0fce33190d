package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FundStatus represents the lifecycle status of a fund
type FundStatus string

const (
	FundStatusActive FundStatus = "ACTIVE"
	FundStatusPaused FundStatus = "PAUSED"
	FundStatusClosed FundStatus = "CLOSED"
)

// Custodian represents the trading custodian / broker holding a fund's account
type Custodian string

const (
	CustodianAlpaca Custodian = "ALPACA"
	CustodianIBKR   Custodian = "IBKR"
)

// Fund represents a fund entity in the domain layer.
// Identity fields are immutable once capital flows exist; only Status transitions.
type Fund struct {
	ID                     uuid.UUID
	Name                   string
	StrategyCode           string // internal strategy identifier (e.g. ETF_MOM_V1), unique
	Status                 FundStatus
	Custodian              Custodian
	CustodianAccountID     string
	CustodianAccountMasked string // masked broker account (e.g. ****1234)
	BaseCurrency           string
	InceptionDate          time.Time
	CreatedAt              time.Time
}

// Validate ensures the fund adheres to domain rules
func (f *Fund) Validate() error {
	if f.Name == "" {
		return errors.New("fund name cannot be empty")
	}
	if f.StrategyCode == "" {
		return errors.New("fund strategy code cannot be empty")
	}
	switch f.Status {
	case FundStatusActive, FundStatusPaused, FundStatusClosed:
	default:
		return errors.New("fund status must be ACTIVE, PAUSED or CLOSED")
	}
	switch f.Custodian {
	case CustodianAlpaca, CustodianIBKR:
	default:
		return errors.New("fund custodian must be ALPACA or IBKR")
	}
	return nil
}
