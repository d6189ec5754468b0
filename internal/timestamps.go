package internal

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Clock supplies the current time to code that needs a fallback timestamp
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T
type FixedClock struct{ T time.Time }

// Now returns the fixed time
func (c FixedClock) Now() time.Time { return c.T }

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// epochMillisThreshold separates epoch seconds from epoch milliseconds
const epochMillisThreshold = 1e11

// timestampLayouts is tried in order for string timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 at 03:04 PM",
	"1/2/2006 at 3:04 PM",
	"01/02/2006, 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"January 2, 2006 at 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp resolves an epoch number or a timestamp string
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t.UTC(), !t.IsZero()
	case int:
		return fromEpoch(float64(t)), true
	case int64:
		return fromEpoch(float64(t)), true
	case uint64:
		return fromEpoch(float64(t)), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return fromEpoch(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f), true
	case string:
		return parseTimestampString(t)
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) time.Time {
	if math.Abs(f) > epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// FormatTimestamp renders t as RFC3339 UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NormalizeTimestamp renders v as RFC3339 UTC. Unresolvable input falls back
// to clock.Now() and reports ok=false.
func NormalizeTimestamp(v any, clock Clock) (string, bool) {
	if t, ok := ParseTimestamp(v); ok {
		return FormatTimestamp(t), true
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return FormatTimestamp(clock.Now()), false
}

// isEmptyTimestamp reports whether a source timestamp value is absent
func isEmptyTimestamp(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
