package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericChars = regexp.MustCompile(`[^\d.,-]`)
	digitRun     = regexp.MustCompile(`\d+`)
)

// parseNumber coerces a messy monetary or quantity string to a float.
// Indian-style digit grouping ("12,34,567.00") is tolerated. Failure leaves
// the field as free text, so callers treat ok=false as a soft miss.
func parseNumber(raw string) (float64, bool) {
	s := numericChars.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseLeadingInt extracts the first integer embedded in the string
// ("15 (Days)" -> 15).
func parseLeadingInt(raw string) (int, bool) {
	m := digitRun.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
