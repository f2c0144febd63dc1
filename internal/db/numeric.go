package db

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Numeric converts a decimal into a query argument for numeric columns.
func Numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// Decimal converts a scanned numeric into a decimal. NULL becomes zero.
func Decimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

type decimalDest struct {
	d *decimal.Decimal
}

func (s decimalDest) ScanNumeric(n pgtype.Numeric) error {
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("numeric value is not finite")
	}
	*s.d = Decimal(n)
	return nil
}

// Dec returns a scan destination that fills d from a numeric column.
func Dec(d *decimal.Decimal) pgtype.NumericScanner {
	return decimalDest{d: d}
}
