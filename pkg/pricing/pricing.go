package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// UnitPrice applies a percentage discount (0..100) to price.
func UnitPrice(price, discountPct decimal.Decimal) decimal.Decimal {
	if !discountPct.IsPositive() {
		return price
	}
	return price.Mul(decimal.NewFromInt(1).Sub(discountPct.Div(hundred)))
}

// LineTotal is the discounted unit price times qty. It is not rounded; round
// the accumulated total instead.
func LineTotal(price, discountPct decimal.Decimal, qty int) decimal.Decimal {
	return UnitPrice(price, discountPct).Mul(decimal.NewFromInt(int64(qty)))
}

// RoundMoney rounds to cents.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
