package dataset

import (
	"strings"
	"time"
)

// DateLayouts is the priority order used for Sale Date values. Ambiguous numeric dates such as
// 03/04/2024 resolve to the first layout that accepts them (month/day before day/month).
// Unpadded day and month fields also accept zero-padded input.
var DateLayouts = []string{
	"2-1-2006",
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-Jan-2006",
	// Spreadsheet short-date renderings.
	"01-02-06",
	"1/2/06",
}

// ParseDate returns the first successful parse of value against layouts as a UTC calendar date.
// The boolean is false when no layout matches.
func ParseDate(value string, layouts []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if len(layouts) == 0 {
		layouts = DateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Day(t), true
		}
	}

	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
