// Package dateutils provides common date and time operations used throughout the application.
package dateutils

import (
	"fmt"
	"time"
)

// Layouts used when rendering instants. None of them contain month or day names,
// so the output never depends on a locale.
const (
	DateLayoutISO          = "2006-01-02"
	TimestampLayoutISO     = "2006-01-02T15:04:05.000-0700"
	TimestampLayoutRFC3339 = time.RFC3339Nano
)

// FormatEpochMillis renders an epoch-millisecond instant as an ISO-8601 timestamp
// with millisecond precision and a numeric UTC offset, e.g. 2024-03-01T13:15:30.250+0300.
// Non-positive values are formatted like any other instant. A nil location means UTC.
func FormatEpochMillis(millis int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(millis).In(loc).Format(TimestampLayoutISO)
}

// ParseTimestamp parses a timestamp produced by FormatEpochMillis.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayoutISO, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// LoadLocation resolves a time zone name. The empty string and "UTC" map to UTC,
// "Local" to the host zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
