package dataset

import (
	"strings"
	"time"
)

// DateLayout is the canonical date representation written by the cleaner.
const DateLayout = "2006-01-02"

// dateLayouts are the heterogeneous formats accepted on input. Order
// matters: unambiguous layouts first, day-first dash last among the
// numeric ones.
var dateLayouts = []string{
	"2006-01-02",
	"2006/1/2",
	"1/2/2006",
	"2-1-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2 2006",
	"January 2, 2006",
}

// ParseDate parses a date string against the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
