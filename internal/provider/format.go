package provider

import (
	"fmt"
	"math"
)

// majorRounding special-cases display granularity for high-denomination
// majors: BTC reads better as "$93k" and ETH as "$3.2k".
var majorRounding = map[string]float64{
	"BTC": 1000,
	"ETH": 100,
}

// FormatPrice renders a raw price for display. Storage always keeps the raw
// float; this policy applies only at the presentation boundary.
func FormatPrice(symbol string, price float64) string {
	if granularity, ok := majorRounding[symbol]; ok && price >= granularity {
		rounded := math.Round(price/granularity) * granularity
		if granularity >= 1000 {
			return fmt.Sprintf("$%.0fk", rounded/1000)
		}
		return fmt.Sprintf("$%.1fk", rounded/1000)
	}

	switch {
	case price >= 10000:
		return fmt.Sprintf("$%.0fk", math.Round(price/1000))
	case price >= 1000:
		return fmt.Sprintf("$%.1fk", math.Round(price/100)/10)
	case price >= 1:
		return fmt.Sprintf("$%.2f", price)
	case price >= 0.01:
		return fmt.Sprintf("$%.3f", price)
	default:
		return fmt.Sprintf("$%.4f", price)
	}
}

// FormatChange renders a percentage change with explicit sign.
func FormatChange(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}
