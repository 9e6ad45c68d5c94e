// Package money provides the fixed-point integer-cents representation used
// for all amounts. There are no floating-point amounts anywhere in the core.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxCents is the upper bound for a single item amount: $1,000,000.00.
const MaxCents int64 = 100_000_000

var printer = message.NewPrinter(language.English)

// ParseCurrencyInput strips every non-digit character from text and
// interprets the remaining digit string as a cents value, clamped to
// [0, MaxCents]. "$12.34" and "1234" both yield 1234: input is digit
// accumulation into cents, never a decimal-point parse.
func ParseCurrencyInput(text string) int64 {
	var cents int64
	seen := false
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		cents = cents*10 + int64(r-'0')
		if cents > MaxCents {
			return MaxCents
		}
	}
	if !seen {
		return 0
	}
	return cents
}

// FormatCents renders a cents value as a currency string with grouped
// thousands and exactly two fractional digits, e.g. 123456 -> "$1,234.56".
// Formatting injects punctuation that ParseCurrencyInput strips back to
// digits, so parse(format(x)) reproduces x but format is not a general
// inverse of parse.
func FormatCents(cents int64) string {
	if cents < 0 {
		cents = 0
	}
	return printer.Sprintf("$%d.%02d", cents/100, cents%100)
}
