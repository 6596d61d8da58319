package pricing

import "github.com/shopspring/decimal"

const Currency = "USD"

// RoundCents rounds half away from zero at two decimal places. Values are
// taken at their shortest decimal form, so 10.255 rounds to 10.26.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Money converts a float amount for exact arithmetic.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Cents rounds d to two places and returns it as a float.
func Cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
