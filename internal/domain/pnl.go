package domain

import "math"

// SaturatingAdd складывает два int64 с насыщением на границах.
// Аккумулятор P&L не должен заворачиваться при переполнении:
// молча зажимаем на MaxInt64/MinInt64 вместо порчи знака.
func SaturatingAdd(a, b int64) int64 {
	sum := a + b
	// Переполнение возможно только когда знаки слагаемых совпадают,
	// а знак суммы поменялся
	if a > 0 && b > 0 && sum < 0 {
		return math.MaxInt64
	}
	if a < 0 && b < 0 && sum >= 0 {
		return math.MinInt64
	}
	return sum
}
