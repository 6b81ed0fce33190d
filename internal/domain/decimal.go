package domain

import "github.com/shopspring/decimal"

// Fixed decimal precisions used across the ledger.
// USD amounts carry 2 fractional digits, units and NAV prices 8, period returns 6.
const (
	USDPlaces    = 2
	UnitsPlaces  = 8
	ReturnPlaces = 6
)

// QuantizeUSD rounds a USD amount to 2 decimal places, half up.
func QuantizeUSD(d decimal.Decimal) decimal.Decimal {
	return d.Round(USDPlaces)
}

// QuantizeUnits rounds a unit or NAV-per-unit quantity to 8 decimal places, half up.
func QuantizeUnits(d decimal.Decimal) decimal.Decimal {
	return d.Round(UnitsPlaces)
}

// QuantizeReturn rounds a period return to 6 decimal places, half up.
func QuantizeReturn(d decimal.Decimal) decimal.Decimal {
	return d.Round(ReturnPlaces)
}
