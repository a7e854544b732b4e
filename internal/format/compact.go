package format

import (
	"math"

	"github.com/shopspring/decimal"
)

type compactUnit struct {
	threshold int64
	places    int32
	suffix    string
}

// Largest first. "jt" is juta (million), "M" is miliar (billion).
var compactUnits = []compactUnit{
	{threshold: 1_000_000_000, places: 1, suffix: "M"},
	{threshold: 1_000_000, places: 1, suffix: "jt"},
	{threshold: 1_000, places: 0, suffix: "k"},
}

// Compact shortens n for chart axes and summary cards: 999 → "999",
// 1500 → "2k", 1000000 → "1jt", 1500000000 → "1.5M". Rounding is half-up
// at the unit's precision and a trailing ".0" is dropped.
func Compact(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}
	d := decimal.NewFromFloat(n)
	abs := d.Abs()
	for _, u := range compactUnits {
		if abs.GreaterThanOrEqual(decimal.NewFromInt(u.threshold)) {
			scaled := d.Div(decimal.NewFromInt(u.threshold)).Round(u.places)
			return scaled.String() + u.suffix
		}
	}
	return d.Round(0).String()
}
