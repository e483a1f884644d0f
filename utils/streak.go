package utils

import (
	"math"
	"time"
)

// CountByDay counts timestamps per calendar day in loc.
func CountByDay(times []time.Time, loc *time.Location) map[string]int {
	out := make(map[string]int, len(times))
	for _, t := range times {
		out[DayKey(t, loc)]++
	}
	return out
}

// Streak counts consecutive calendar days with at least one entry. The walk starts
// today if today has an entry, otherwise yesterday, and stops at the first gap.
func Streak(times []time.Time, now time.Time, loc *time.Location) int {
	counts := CountByDay(times, loc)
	day := DayStart(now, loc)
	if counts[day.Format(DayLayout)] == 0 {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for counts[day.Format(DayLayout)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// HeatmapTier maps a day's entry count to a colour intensity 0..4.
func HeatmapTier(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= 4:
		return 4
	}
	return count
}

type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Tier  int    `json:"tier"`
}

// Heatmap covers the trailing days ending today, oldest first.
func Heatmap(times []time.Time, now time.Time, days int, loc *time.Location) []HeatmapDay {
	if days <= 0 {
		return nil
	}
	counts := CountByDay(times, loc)
	today := DayStart(now, loc)
	out := make([]HeatmapDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(DayLayout)
		c := counts[key]
		out = append(out, HeatmapDay{Date: key, Count: c, Tier: HeatmapTier(c)})
	}
	return out
}

var achievementSteps = []struct {
	days  int
	label string
}{
	{3, "3 Day Streak"},
	{7, "7 Day Streak"},
	{14, "2 Week Streak"},
	{30, "1 Month Streak"},
}

// Achievements lists every milestone the streak has reached.
func Achievements(streak int) []string {
	out := []string{}
	for _, s := range achievementSteps {
		if streak >= s.days {
			out = append(out, s.label)
		}
	}
	return out
}

type MonthStat struct {
	Month          string  `json:"month"` // "Jan 2006"
	TotalEntries   int     `json:"total_entries"`
	DaysLogged     int     `json:"days_logged"`
	CompletionRate int     `json:"completion_rate"` // % of the month's days with an entry
	AverageEntries float64 `json:"average_entries"` // per logged day
}

// MonthlyStats summarises the current month and the months-1 before it, newest first.
func MonthlyStats(times []time.Time, now time.Time, months int, loc *time.Location) []MonthStat {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	first := time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc)

	out := make([]MonthStat, 0, months)
	for i := 0; i < months; i++ {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		total := 0
		days := map[string]struct{}{}
		for _, t := range times {
			if InRange(t, start, end) {
				total++
				days[DayKey(t, loc)] = struct{}{}
			}
		}
		daysInMonth := end.AddDate(0, 0, -1).Day()

		st := MonthStat{
			Month:          start.Format("Jan 2006"),
			TotalEntries:   total,
			DaysLogged:     len(days),
			CompletionRate: int(math.Round(float64(len(days)) / float64(daysInMonth) * 100)),
		}
		if len(days) > 0 {
			st.AverageEntries = Round1(float64(total) / float64(len(days)))
		}
		out = append(out, st)
	}
	return out
}
