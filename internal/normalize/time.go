package normalize

import (
	"time"
	_ "time/tzdata"
)

// Paris is the civil time zone of the network. Every normalized timestamp carries it.
var Paris = mustLoadLocation("Europe/Paris")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// zonedLayouts carry an explicit offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// civilLayouts are interpreted in Paris time.
var civilLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses s and returns the instant in Paris time.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.In(Paris), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, s, Paris); err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// RequestTime stamps a realtime snapshot: Paris time, second precision.
func RequestTime(now time.Time) time.Time {
	return now.In(Paris).Truncate(time.Second)
}
