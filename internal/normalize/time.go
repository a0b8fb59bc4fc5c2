package normalize

import (
	"math"
	"time"
)

// Timestamp renders v as a UTC ISO-8601 string. time.Time values format
// directly; numeric values are interpreted as epoch seconds (fractional
// allowed). Anything else, including the zero time, yields false.
func Timestamp(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return formatTime(t)
	case *time.Time:
		if t == nil {
			return "", false
		}
		return formatTime(*t)
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case float64:
		return fromEpoch(t)
	case float32:
		return fromEpoch(float64(t))
	default:
		return "", false
	}
}

// Latency returns the span duration in seconds. False means an endpoint is
// missing and no latency should be reported. Negative durations (clock
// skew between producers) pass through untouched.
func Latency(start, end time.Time) (float64, bool) {
	if start.IsZero() || end.IsZero() {
		return 0, false
	}
	return end.Sub(start).Seconds(), true
}

func formatTime(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return t.UTC().Format(time.RFC3339Nano), true
}

func fromEpoch(sec float64) (string, bool) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "", false
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC().Format(time.RFC3339Nano), true
}
