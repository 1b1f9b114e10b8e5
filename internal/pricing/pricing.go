// Package pricing computes cover and premium amounts for insurance quotes.
// It is a pure function of the quote type, the customer's date of birth, and
// the evaluation time.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type baseRate struct {
	cover   int64
	premium int64
}

// Base rates per quote type. Unrecognized types fall back to the defensive
// default so a pricing call never fails; enum validation happens upstream.
var baseRates = map[string]baseRate{
	"personal-accident":   {cover: 20000, premium: 200},
	"auto":                {cover: 30000, premium: 300},
	"homeowner-insurance": {cover: 40000, premium: 400},
}

var defaultRate = baseRate{cover: 50000, premium: 500}

var (
	youngCoverFactor   = decimal.RequireFromString("1.2")
	youngPremiumFactor = decimal.NewFromInt(2)
	midCoverFactor     = decimal.RequireFromString("1.1")
	midPremiumFactor   = decimal.RequireFromString("1.5")
	seniorCoverFactor  = decimal.RequireFromString("0.7")
)

// Quote returns the cover and premium for a quote type and date of birth,
// evaluated at the given time. Amounts are rounded to 2 decimal places.
func Quote(quoteType string, dateOfBirth, now time.Time) (cover, premium decimal.Decimal) {
	rate, ok := baseRates[quoteType]
	if !ok {
		rate = defaultRate
	}

	cover = decimal.NewFromInt(rate.cover)
	premium = decimal.NewFromInt(rate.premium)

	switch age := Age(dateOfBirth, now); {
	case age < 25:
		cover = cover.Mul(youngCoverFactor)
		premium = premium.Mul(youngPremiumFactor)
	case age < 50:
		cover = cover.Mul(midCoverFactor)
		premium = premium.Mul(midPremiumFactor)
	default:
		cover = cover.Mul(seniorCoverFactor)
	}

	return cover.Round(2), premium.Round(2)
}

// Age returns whole years as elapsed days divided by 365. This floors the
// value and ignores leap years, matching the pricing contract exactly.
func Age(dateOfBirth, now time.Time) int {
	days := int(now.Sub(dateOfBirth).Hours() / 24)
	return days / 365
}
