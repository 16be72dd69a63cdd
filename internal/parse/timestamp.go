package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var timestampLayouts = []string{
	"Monday, January 2, 2006 at 3:04pm MST",
	"Monday, January 2, 2006 at 3:04pm -0700",
	"Monday, January 2, 2006 at 3:04pm",
	"Monday, January 2, 2006 at 3:04 PM MST",
	"Monday, January 2, 2006 at 3:04 PM -0700",
	"Monday, January 2, 2006 at 3:04 PM",
	"Monday, January 2, 2006 at 15:04 MST",
	"Monday, January 2, 2006 at 15:04 -0700",
	"Monday, January 2, 2006 at 15:04",
	time.RFC3339,
	"2006-01-02 15:04",
}

// utcOffsetRe matches the "UTC+01" / "UTC-05:30" suffix used by newer exports.
var utcOffsetRe = regexp.MustCompile(`\s*UTC([+-])(\d{1,2})(?::?(\d{2}))?$`)

// ParseTimestamp parses an archive timestamp. Zone abbreviations other than
// UTC carry no offset, matching how the archive itself is read back.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	s = normalizeOffset(s)

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// normalizeOffset rewrites "UTC+01" into "+0100".
func normalizeOffset(s string) string {
	m := utcOffsetRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hours := m[2]
	if len(hours) == 1 {
		hours = "0" + hours
	}
	mins := m[3]
	if mins == "" {
		mins = "00"
	}
	return s[:len(s)-len(m[0])] + " " + m[1] + hours + mins
}
