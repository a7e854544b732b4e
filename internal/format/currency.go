// Package format renders amounts for API responses, exports and the CLI.
package format

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const rupiahZero = "Rp 0"

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah formats v as Indonesian rupiah with dot thousand separators and no
// decimals, e.g. "Rp 10.000". Strings are reduced to their digits first, so
// "Total: 50.000" renders as "Rp 50.000". Nil, NaN, infinities and unsupported
// types render as "Rp 0".
func Rupiah(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return rupiahZero
	}
	return formatRupiah(d)
}

func formatRupiah(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n == 0 {
		return rupiahZero
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "Rp " + idPrinter.Sprintf("%d", n)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case float64:
		return fromFloat(x)
	case *float64:
		if x == nil {
			return decimal.Zero, false
		}
		return fromFloat(*x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), true
	case json.Number:
		return fromDigits(string(x))
	case string:
		return fromDigits(x)
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// fromDigits keeps only ASCII digits. Signs and separators are dropped.
func fromDigits(s string) (decimal.Decimal, bool) {
	digits := strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
