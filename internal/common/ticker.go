// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"regexp"
	"strings"
)

// tickerPattern matches plain exchange codes like "AAPL" or "BRK.B".
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}(\.[A-Z]{1,2})?$`)

// NormalizeTicker trims and uppercases a ticker symbol.
// "aapl " -> "AAPL".
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidateTicker normalizes the ticker and reports whether it is a plausible
// symbol. Empty or malformed tickers are rejected before any run is admitted.
func ValidateTicker(ticker string) (string, error) {
	normalized := NormalizeTicker(ticker)
	if normalized == "" {
		return "", fmt.Errorf("ticker must not be empty")
	}
	if !tickerPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid ticker symbol %q", ticker)
	}
	return normalized, nil
}
