package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberPattern    = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)`)
	plainNumber      = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

const DefaultQuantity = "1"

// Quantity returns raw unless it is blank, in which case one unit is assumed.
func Quantity(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return DefaultQuantity
	}
	return raw
}

type ParsedQty struct {
	Qty decimal.Decimal
	OK  bool
}

// ParseQty reads the first number out of a quantity cell such as "2", "3개" or "1,000".
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, "\u00a0", " ")
	m := numberPattern.FindString(line)
	if m == "" {
		return ParsedQty{}
	}
	qty, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return ParsedQty{}
	}
	return ParsedQty{Qty: qty, OK: true}
}

// ParseAmount reads a price cell such as "12000", "12,000" or "12,000원".
func ParseAmount(input string) (decimal.Decimal, bool) {
	s := strings.NewReplacer("\u00a0", "", " ", "").Replace(input)
	s = strings.TrimSuffix(s, "원")
	s = strings.TrimSpace(s)
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsPlainNumber reports whether s can be stored as a numeric cell without
// changing how it reads (no leading zeros, separators or units).
func IsPlainNumber(s string) bool {
	return plainNumber.MatchString(s)
}
