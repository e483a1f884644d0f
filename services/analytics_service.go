package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"nutrilog/repository"
	"nutrilog/utils"
)

type AnalyticsService struct {
	foods repository.FoodEntryRepository
	loc   locator
	parse utils.NutrientParser
	now   func() time.Time
}

func NewAnalyticsService(
	foods repository.FoodEntryRepository, users repository.UserRepository,
	parse utils.NutrientParser, defaultTZ *time.Location,
) *AnalyticsService {
	if parse == nil {
		parse = utils.ParseNutrients
	}
	return &AnalyticsService{
		foods: foods,
		loc:   locator{users: users, fallback: defaultTZ},
		parse: parse,
		now:   time.Now,
	}
}

type AnalyticsRange struct {
	Window utils.Window `json:"window"`
	From   string       `json:"from"` // first day, inclusive
	To     string       `json:"to"`   // last day, inclusive
}

type AnalyticsSummary struct {
	Range  AnalyticsRange `json:"range"`
	Totals utils.Totals   `json:"totals"`
	// DailyAverage divides by the days of the window, logged or not.
	DailyAverage utils.Nutrients `json:"daily_average"`
}

func (s *AnalyticsService) window(ctx context.Context, userID, raw string) (utils.Window, *time.Location, time.Time, time.Time, error) {
	w, err := utils.ParseWindow(raw)
	if err != nil {
		return "", nil, time.Time{}, time.Time{}, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return "", nil, time.Time{}, time.Time{}, err
	}
	start, end := w.Range(s.now(), loc)
	return w, loc, start, end, nil
}

func rangeOf(w utils.Window, start, end time.Time) AnalyticsRange {
	return AnalyticsRange{
		Window: w,
		From:   start.Format(utils.DayLayout),
		To:     end.AddDate(0, 0, -1).Format(utils.DayLayout),
	}
}

// Summary totals the window.
func (s *AnalyticsService) Summary(ctx context.Context, userID, window string) (*AnalyticsSummary, error) {
	w, _, start, end, err := s.window(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	list, err := s.foods.List(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	totals := utils.Aggregate(list, start, end, s.parse)

	days := float64(w.Days())
	avg := utils.Nutrients{
		Calories: int(math.Round(float64(totals.Calories) / days)),
		Protein:  utils.Round1(totals.Protein / days),
		Fat:      utils.Round1(totals.Fat / days),
		Carbs:    utils.Round1(totals.Carbs / days),
		Fiber:    utils.Round1(totals.Fiber / days),
	}
	return &AnalyticsSummary{Range: rangeOf(w, start, end), Totals: totals, DailyAverage: avg}, nil
}

type SeriesPoint struct {
	Date    string  `json:"date"`
	Value   float64 `json:"value"`
	Entries int     `json:"entries"`
}

type Series struct {
	Nutrient string         `json:"nutrient"`
	Range    AnalyticsRange `json:"range"`
	Points   []SeriesPoint  `json:"points"`
}

var seriesNutrients = map[string]bool{
	"calories": true, "protein": true, "fat": true, "carbs": true, "carbohydrates": true, "fiber": true,
}

// Series is one chart line: the daily total of a nutrient, oldest day first.
func (s *AnalyticsService) Series(ctx context.Context, userID, nutrient, window string, includeEmpty bool) (*Series, error) {
	nutrient = strings.ToLower(strings.TrimSpace(nutrient))
	if nutrient == "" {
		nutrient = "calories"
	}
	if !seriesNutrients[nutrient] {
		return nil, fmt.Errorf("unknown nutrient %q: %w", nutrient, ErrInvalidInput)
	}
	w, loc, start, end, err := s.window(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	list, err := s.foods.List(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}

	buckets := utils.BucketByDay(list, start, end, loc, s.parse, includeEmpty)
	points := make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{
			Date:    b.Date,
			Value:   utils.Round1(b.Value(nutrient)),
			Entries: b.Entries,
		})
	}
	return &Series{Nutrient: nutrient, Range: rangeOf(w, start, end), Points: points}, nil
}

type BreakdownSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Breakdown struct {
	Date   string           `json:"date"`
	Slices []BreakdownSlice `json:"slices"`
	Totals utils.Totals     `json:"totals"`
}

// Breakdown is today's pie chart data.
func (s *AnalyticsService) Breakdown(ctx context.Context, userID string) (*Breakdown, error) {
	_, _, start, end, err := s.window(ctx, userID, string(utils.WindowToday))
	if err != nil {
		return nil, err
	}
	list, err := s.foods.List(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	t := utils.Aggregate(list, start, end, s.parse)
	return &Breakdown{
		Date: start.Format(utils.DayLayout),
		Slices: []BreakdownSlice{
			{Name: "Calories", Value: float64(t.Calories)},
			{Name: "Protein", Value: utils.Round1(t.Protein)},
			{Name: "Fat", Value: utils.Round1(t.Fat)},
			{Name: "Carbs", Value: utils.Round1(t.Carbs)},
			{Name: "Fiber", Value: utils.Round1(t.Fiber)},
		},
		Totals: t,
	}, nil
}
