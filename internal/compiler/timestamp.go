package compiler

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Parsing accepts a fractional second
// after the seconds field even when the layout omits it. Layouts without a
// zone parse as UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date or date-time.
//
// A trailing "Z" is read as +00:00. The date/time separator may be "T" or
// a single space. Values without an offset are taken as UTC. Surrounding
// whitespace is not trimmed.
func ParseTimestamp(value string) (time.Time, error) {
	s := value
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", value)
}
