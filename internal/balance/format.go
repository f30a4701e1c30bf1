package balance

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxFractionDigits bounds the fractional part of formatted amounts.
const DefaultMaxFractionDigits = 6

// NormalizeAmount scales a smallest-unit balance by the token's decimal
// precision. Non-positive precision leaves the raw integer untouched.
func NormalizeAmount(raw *big.Int, decimals int32) decimal.Decimal {
	if decimals <= 0 {
		return decimal.NewFromBigInt(raw, 0)
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// FormatAmount renders a normalized amount with thousands separators,
// truncated to maxFrac fractional digits, trailing zeros and a trailing
// decimal point stripped.
func FormatAmount(amount decimal.Decimal, maxFrac int32) string {
	if maxFrac < 0 {
		maxFrac = 0
	}
	truncated := amount.Truncate(maxFrac)

	text := truncated.String()
	intPart := text
	fracPart := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		intPart = text[:idx]
		fracPart = strings.TrimRight(text[idx+1:], "0")
	}

	out := groupThousands(intPart)
	if fracPart != "" {
		out += "." + fracPart
	}
	return out
}

// FormatUSD renders a USD value rounded to whole dollars with thousands
// separators and a leading dollar sign.
func FormatUSD(value decimal.Decimal) string {
	rounded := value.Round(0)
	return "$" + groupThousands(rounded.String())
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	if len(digits) > 3 {
		var b strings.Builder
		lead := len(digits) % 3
		if lead > 0 {
			b.WriteString(digits[:lead])
		}
		for i := lead; i < len(digits); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(digits[i : i+3])
		}
		digits = b.String()
	}

	if neg {
		return "-" + digits
	}
	return digits
}
