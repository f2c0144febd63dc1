package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentOf returns pct percent of amount, rounded to 2 decimal places.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// Sum adds amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
