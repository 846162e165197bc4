package currency

import (
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// usdScale is the number of decimal places kept on USD amounts.
const usdScale = 2

// Converter converts between USD and ARS. It is constructed with the rate
// in effect at call time; the rate is an explicit value, never package
// state, so concurrent requests with different "as of" rates cannot
// interfere. Historical conversions always pass the snapshot captured on
// the record, which is what keeps past totals stable when the current rate
// changes.
//
// The converter assumes a valid (positive) rate; rate validation happens at
// the point of entry.
type Converter struct {
	rate decimal.Decimal // ARS per USD
}

// New creates a Converter using currentRate as the live ARS/USD rate.
func New(currentRate decimal.Decimal) Converter {
	return Converter{rate: currentRate}
}

// CurrentRate returns the live ARS/USD rate the converter was built with.
func (c Converter) CurrentRate() decimal.Decimal {
	return c.rate
}

// ToUSD converts an amount in the given currency to USD. USD amounts pass
// through unchanged. ARS amounts divide by the snapshot when one is given
// (a historical record) or by the current rate (a new entry).
func (c Converter) ToUSD(amount decimal.Decimal, cur domain.Currency, snapshot *decimal.Decimal) decimal.Decimal {
	if cur == domain.CurrencyUSD {
		return amount
	}

	rate := c.rate
	if snapshot != nil {
		rate = *snapshot
	}
	return amount.DivRound(rate, usdScale)
}

// ToARS converts a USD amount to ARS, multiplying by the snapshot when one
// is given or by the current rate otherwise.
func (c Converter) ToARS(usdAmount decimal.Decimal, snapshot *decimal.Decimal) decimal.Decimal {
	rate := c.rate
	if snapshot != nil {
		rate = *snapshot
	}
	return usdAmount.Mul(rate).Round(usdScale)
}
