// Package money provides exact fixed-point monetary arithmetic.
//
// Amounts are shopspring decimals carried at two fractional digits (the
// minor unit). Binary floating point is never used on monetary code paths;
// callers exchange amounts as decimal strings.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// supportedCurrencies lists the currency codes the ledger accepts.
var supportedCurrencies = map[string]bool{
	"XAF": true,
	"XOF": true,
	"EUR": true,
	"USD": true,
	"GBP": true,
	"CHF": true,
	"CAD": true,
}

// ValidCurrency reports whether code is a supported ISO 4217 currency.
func ValidCurrency(code string) bool {
	return supportedCurrencies[code]
}

// Parse converts a decimal string into a positive amount rounded half-up
// to the minor unit. Malformed, zero, or negative input is rejected.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	d = RoundToMinor(d)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %q", s)
	}
	return d, nil
}

// RoundToMinor rounds an amount half-up to two fractional digits.
func RoundToMinor(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount as a decimal string with exactly two
// fractional digits, the wire representation for all monetary fields.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Fee computes a provider fee: amount x percentage/100 + fixed,
// rounded half-up to the minor unit.
func Fee(amount, percentage, fixed decimal.Decimal) decimal.Decimal {
	pct := amount.Mul(percentage).Div(decimal.NewFromInt(100))
	return RoundToMinor(pct.Add(fixed))
}

// SplitEven divides total among n parties without rounding loss.
// The total is converted to minor units, divided with integer arithmetic,
// and the remainder is handed out one unit at a time to the first parties,
// so the shares always sum exactly to total.
func SplitEven(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split among %d parties", n)
	}
	minor := total.Shift(2)
	if !minor.IsInteger() {
		return nil, fmt.Errorf("amount %s has sub-minor-unit precision", total)
	}

	units := minor.IntPart()
	base := units / int64(n)
	remainder := units % int64(n)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		u := base
		if int64(i) < remainder {
			u++
		}
		shares[i] = decimal.New(u, -2)
	}
	return shares, nil
}

// Percentage returns part/whole as a percent rounded to two decimals.
// A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// Sum adds amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
