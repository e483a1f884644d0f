package utils

import (
	"fmt"
	"sort"
	"time"

	"nutrilog/models"
)

// Window is a trailing range of whole calendar days ending today.
type Window string

const (
	WindowToday Window = "today"
	Window7d    Window = "7d"
	Window30d   Window = "30d"
)

// ParseWindow accepts today, 7d and 30d. Empty means today.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowToday:
		return WindowToday, nil
	case Window7d, Window30d:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown window %q (want today, 7d or 30d)", s)
}

// Days is the number of calendar days the window covers.
func (w Window) Days() int {
	switch w {
	case Window7d:
		return 7
	case Window30d:
		return 30
	}
	return 1
}

// Range returns [start, end): start is midnight of the oldest day, end is the
// midnight after today. An entry stamped exactly at end is outside the window.
func (w Window) Range(now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := DayStart(now, loc)
	return today.AddDate(0, 0, -(w.Days() - 1)), today.AddDate(0, 0, 1)
}

// InRange reports start <= t < end.
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// Totals is a folded set of entries.
type Totals struct {
	Nutrients
	Entries  int `json:"entries"`
	Unparsed int `json:"unparsed_entries"`
}

func (t *Totals) add(n Nutrients, ok bool) {
	t.Nutrients = t.Nutrients.Add(n)
	t.Entries++
	if !ok {
		t.Unparsed++
	}
}

// Aggregate sums every entry with a timestamp in [start, end).
func Aggregate(entries []models.FoodEntry, start, end time.Time, parse NutrientParser) Totals {
	if parse == nil {
		parse = ParseNutrients
	}
	var out Totals
	for _, e := range entries {
		if !InRange(e.Timestamp, start, end) {
			continue
		}
		out.add(parse(e.NutritionInfo))
	}
	return out
}

// DayBucket is one chart point.
type DayBucket struct {
	Date string `json:"date"`
	Totals
}

// BucketByDay groups entries in [start, end) by calendar day in loc, ascending.
// With includeEmpty every day of the range gets a bucket.
func BucketByDay(
	entries []models.FoodEntry, start, end time.Time, loc *time.Location,
	parse NutrientParser, includeEmpty bool,
) []DayBucket {
	if parse == nil {
		parse = ParseNutrients
	}
	idx := map[string]*Totals{}
	if includeEmpty {
		for d := DayStart(start, loc); d.Before(end); d = d.AddDate(0, 0, 1) {
			idx[d.Format(DayLayout)] = &Totals{}
		}
	}
	for _, e := range entries {
		if !InRange(e.Timestamp, start, end) {
			continue
		}
		key := DayKey(e.Timestamp, loc)
		t, ok := idx[key]
		if !ok {
			t = &Totals{}
			idx[key] = t
		}
		t.add(parse(e.NutritionInfo))
	}

	out := make([]DayBucket, 0, len(idx))
	for k, t := range idx {
		out = append(out, DayBucket{Date: k, Totals: *t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// LogDay is one day of the food log, newest entry first.
type LogDay struct {
	Date    string        `json:"date"`
	Total   Nutrients     `json:"total"`
	Entries []ParsedEntry `json:"entries"`
}

// ParsedEntry pairs a stored entry with its extracted numbers.
type ParsedEntry struct {
	models.FoodEntry
	Nutrition       Nutrients `json:"nutrition"`
	NutritionParsed bool      `json:"nutrition_parsed"`
}

// GroupLog groups entries by calendar day, days and entries newest first.
func GroupLog(entries []models.FoodEntry, loc *time.Location, parse NutrientParser) []LogDay {
	if parse == nil {
		parse = ParseNutrients
	}
	sorted := make([]models.FoodEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	var out []LogDay
	for _, e := range sorted {
		key := DayKey(e.Timestamp, loc)
		if len(out) == 0 || out[len(out)-1].Date != key {
			out = append(out, LogDay{Date: key})
		}
		n, ok := parse(e.NutritionInfo)
		day := &out[len(out)-1]
		day.Total = day.Total.Add(n)
		day.Entries = append(day.Entries, ParsedEntry{FoodEntry: e, Nutrition: n, NutritionParsed: ok})
	}
	return out
}
