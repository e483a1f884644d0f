package utils

import (
	"fmt"
	"math"
	"time"
)

// DayLayout is the calendar-day key format used for goals and buckets.
const DayLayout = "2006-01-02"

// DayStart truncates t to local midnight in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	tt := t.In(loc)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, loc)
}

// DayKey formats t as YYYY-MM-DD in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return DayStart(t, loc).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD key as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// LoadLocation resolves an IANA zone name, falling back to fallback on "" or error.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.Local
	}
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

func Round1(v float64) float64 { return math.Round(v*10) / 10 }
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
