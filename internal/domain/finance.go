package domain

import "github.com/shopspring/decimal"

// LedgerTotals are the per-ledger sums of one period.
type LedgerTotals struct {
	Earnings      decimal.Decimal
	Expenses      decimal.Decimal
	Transfers     decimal.Decimal
	Distributions decimal.Decimal
	Borrowed      decimal.Decimal
	Returned      decimal.Decimal
}

// EarningForOrder is the unpaid earning backing a completed order.
func EarningForOrder(o Order) Earning {
	orderID := o.ID
	return Earning{
		OrderID:        &orderID,
		ClientID:       o.ClientID,
		Month:          o.OrderDate.Format(MonthLayout),
		GrossAmount:    o.TotalPrice,
		NetAmount:      o.TotalPrice,
		Fees:           decimal.Zero,
		Tax:            decimal.Zero,
		ConversionRate: decimal.Zero,
		AmountInBDT:    decimal.Zero,
		Status:         EarningUnpaid,
	}
}
