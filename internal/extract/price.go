package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyPattern matches "$1,299.99", "£9.99", "EUR 25" and similar.
// Symbol or code comes first so bare numbers never count as prices.
var currencyPattern = regexp.MustCompile(`(?:[$£€]|\b(?:USD|EUR|GBP)\b)\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)

// maxPriceTextLength is the longest a text fragment can be and still count
// as a standalone price label rather than prose that mentions money.
const maxPriceTextLength = 30

// parsePrice returns the first price found in text, or nil when there is
// none. Nil means unknown; zero is a real value.
func parsePrice(text string) *float64 {
	m := currencyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &value
}

func hasCurrency(text string) bool {
	return currencyPattern.MatchString(text)
}

// isPriceText reports whether a short text fragment is essentially a price
// label, like "$24.99" or "Now $1,299".
func isPriceText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > maxPriceTextLength {
		return false
	}
	return currencyPattern.MatchString(trimmed)
}

// stripPriceText removes embedded price substrings from a title and tidies
// the leftover whitespace and separators.
func stripPriceText(text string) string {
	cleaned := currencyPattern.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, " -–|·,")
}
