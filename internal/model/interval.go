package model

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a candle width supported by the screener.
type Interval string

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
)

// Intervals lists the supported intervals in ascending width.
var Intervals = []Interval{Interval5m, Interval15m, Interval30m}

// ParseInterval accepts "5m", "15m" or "30m" (case-insensitive, surrounding spaces ignored).
func ParseInterval(s string) (Interval, error) {
	v := Interval(strings.ToLower(strings.TrimSpace(s)))
	for _, iv := range Intervals {
		if v == iv {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unsupported interval %q (want one of %v)", s, Intervals)
}

// Duration returns the width of one candle.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	default:
		return 0
	}
}

func (i Interval) String() string { return string(i) }
