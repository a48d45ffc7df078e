package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses duration string like "5m", falling back on error
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration < 0 {
		return fallback
	}
	return duration
}

// ParseFloat parses a finite number. NaN and infinities are rejected.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseValue returns an int64, a float64 or the trimmed string,
// whichever the input spells
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)

	// try int
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// try float
	if f, ok := ParseFloat(s); ok {
		return f
	}
	return s
}

// FormatNumber renders a float without trailing zeros ("1.5", "20")
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
