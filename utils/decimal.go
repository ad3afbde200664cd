package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLenientDecimal accepts user-formatted amounts such as:
// - "20,000"
// - "Ks 20000"
// - "$ -1,250.50"
//
// Digits, '.', and a leading '-' are kept; everything else is dropped.
func ParseLenientDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s != "" {
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(strings.TrimLeftFunc(s, func(r rune) bool {
			return r != '-' && (r < '0' || r > '9') && r != '.'
		}))
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid decimal value %q", value)
	}
	if neg {
		clean = "-" + clean
	}

	val, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}
	return val, nil
}
