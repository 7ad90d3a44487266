package listing

import (
	"regexp"
	"strings"
	"time"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]+ \d{4}`)

var datetimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

var textLayouts = []string{"2 January 2006", "2 Jan 2006"}

// parseDatetimeAttr reads a machine-readable datetime attribute and keeps the
// calendar date as written, without shifting it to UTC.
func parseDatetimeAttr(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return calendarDate(parsed), true
		}
	}
	return time.Time{}, false
}

// parseVisibleDate reads the last parseable "2 January 2006" style date in
// text; on a listing item that is the trailing published date.
func parseVisibleDate(text string) (time.Time, bool) {
	matches := dateExpr.FindAllString(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		for _, layout := range textLayouts {
			if parsed, err := time.Parse(layout, matches[i]); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
