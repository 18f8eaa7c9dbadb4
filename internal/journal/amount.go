package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a locale-formatted numeric token into an exact decimal.
// Serbian receipts print "1.234,56", but dot-decimal input ("1,234.56",
// "499.99") is accepted too. The rules:
//
//   - both separators present: the later one is the decimal separator
//   - a single comma is a decimal separator
//   - a single dot followed by exactly three digits is a thousands separator
//     only when the integer part is a plausible leading group: one to three
//     digits not starting with zero ("1.234" is one thousand two hundred
//     thirty four, "0.755" is an exact quantity); otherwise it is a decimal
//     separator
//   - repeated occurrences of one separator are thousands separators
func ParseAmount(token string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(token), " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		} else if isThousandsDot(s, lastDot) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", token, err)
	}
	return d, nil
}

// isThousandsDot reports whether the lone dot in s groups thousands. A
// three-digit fraction alone is not enough: "0.755" must stay an exact
// quantity, so the integer part has to look like a leading group (one to
// three digits, no leading zero).
func isThousandsDot(s string, dot int) bool {
	if len(s)-dot-1 != 3 {
		return false
	}
	intPart := s[:dot]
	if len(intPart) < 1 || len(intPart) > 3 {
		return false
	}
	return intPart[0] != '0'
}
