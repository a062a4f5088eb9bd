package extract

import (
	"strings"
	"time"
)

// dateLayouts are tried in fixed priority order; the first layout that
// parses wins. The hyphenated day-month-year form is the dominant GeM
// format and must be attempted before the slash-separated one.
var dateLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2006-1-2",
	"January 2, 2006",
}

// parseDate normalizes a raw matched substring into a calendar date.
// An unparsable string is a non-fatal partial success; callers keep the raw
// text instead.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		s := raw
		if layout == "January 2, 2006" {
			// tolerate a missing comma in the month-name form
			if !strings.Contains(s, ",") {
				if t, err := time.Parse("January 2 2006", s); err == nil {
					return t, true
				}
				continue
			}
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAltDate handles the day-MonthAbbrev-year fallback form ("15-Aug-1947")
// that appears in older bid documents.
func parseAltDate(raw string) (time.Time, bool) {
	t, err := time.Parse("2-Jan-2006", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
