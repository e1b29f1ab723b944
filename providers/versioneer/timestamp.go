package versioneer

import (
	"fmt"
	"strconv"
	"time"
)

// timestampPatterns maps CalVer tokens to their formatters.
var timestampPatterns = map[string]func(t time.Time) string{
	"YYYY": func(t time.Time) string { return strconv.Itoa(t.Year()) },
	"YY":   func(t time.Time) string { return strconv.Itoa(t.Year() % 100) },
	"0Y":   func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) },
	"MM":   func(t time.Time) string { return strconv.Itoa(int(t.Month())) },
	"0M":   func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) },
	"WW":   func(t time.Time) string { _, w := t.ISOWeek(); return strconv.Itoa(w) },
	"0W":   func(t time.Time) string { _, w := t.ISOWeek(); return fmt.Sprintf("%02d", w) },
	"DD":   func(t time.Time) string { return strconv.Itoa(t.Day()) },
	"0D":   func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) },
	"HH":   func(t time.Time) string { return strconv.Itoa(t.Hour()) },
	"0H":   func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) },
}

// FormatTimestamp resolves a CalVer pattern against a unix timestamp (UTC).
func FormatTimestamp(pattern string, unix int64) (string, error) {
	f, ok := timestampPatterns[pattern]
	if !ok {
		return "", fmt.Errorf("unknown timestamp pattern %q", pattern)
	}
	return f(time.Unix(unix, 0).UTC()), nil
}
