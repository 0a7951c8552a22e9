// Package quantity does stock arithmetic in decimal so fractional servings
// (0.1 of a topping, 0.3 of a sauce) do not accumulate binary float drift.
package quantity

import "github.com/shopspring/decimal"

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func Mul(a, b float64) float64 {
	return d(a).Mul(d(b)).InexactFloat64()
}

func Add(a, b float64) float64 {
	return d(a).Add(d(b)).InexactFloat64()
}

func Sub(a, b float64) float64 {
	return d(a).Sub(d(b)).InexactFloat64()
}

func Sum(vals ...float64) float64 {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(d(v))
	}
	return total.InexactFloat64()
}

// Div returns a/b. b must be non-zero.
func Div(a, b float64) float64 {
	return d(a).DivRound(d(b), 8).InexactFloat64()
}

// FloorDiv returns floor(a/b) for b > 0; 0 otherwise.
func FloorDiv(a, b float64) int64 {
	if b <= 0 {
		return 0
	}
	return d(a).Div(d(b)).Floor().IntPart()
}

// Cmp compares a and b: -1 if a < b, 0 if equal, 1 if a > b.
func Cmp(a, b float64) int {
	return d(a).Cmp(d(b))
}

func IsWhole(v float64) bool {
	return d(v).IsInteger()
}
