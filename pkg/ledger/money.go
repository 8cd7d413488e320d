package ledger

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Sum adds the amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Discounted applies a percentage discount: unit × (1 − percent/100).
func Discounted(unit decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return unit.Mul(one.Sub(percent.Div(hundred)))
}

// PositivePart returns max(0, amount).
func PositivePart(amount decimal.Decimal) decimal.Decimal {
	if amount.Sign() < 0 {
		return decimal.Zero
	}
	return amount
}

func valueOr(candidate *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if candidate == nil {
		return fallback
	}
	return *candidate
}
