package model

import "math"

// RoundMoney rounds a monetary amount to 4 decimal places. All per-record
// costs are rounded at calculation time so that batch totals are plain sums
// of already-rounded values and reproduce bit-for-bit across runs.
func RoundMoney(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// RoundQuantity rounds derived quantities (minutes, hours, percentages)
// to 2 decimal places for display.
func RoundQuantity(v float64) float64 {
	return math.Round(v*100) / 100
}
