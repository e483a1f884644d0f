package services

import (
	"context"
	"testing"
	"time"

	"nutrilog/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyticsFixture(now time.Time) (*AnalyticsService, *memFoods) {
	foods := &memFoods{}
	svc := NewAnalyticsService(foods, newMemUsers(), nil, time.UTC)
	svc.now = fixedClock(now)
	return svc, foods
}

func TestAnalyticsSummary(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, foods := newAnalyticsFixture(now)
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	foods.add("u1", today, sampleInfo)                        // start of today
	foods.add("u1", today.AddDate(0, 0, 1), sampleInfo)       // tomorrow midnight, outside
	foods.add("u1", today.AddDate(0, 0, -6), sampleInfo)      // oldest day of 7d
	foods.add("u1", today.Add(-7*24*time.Hour-1), sampleInfo) // just before 7d
	foods.add("u1", today.AddDate(0, 0, -20), "??")

	ctx := context.Background()

	s, err := svc.Summary(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, utils.WindowToday, s.Range.Window)
	assert.Equal(t, "2024-06-10", s.Range.From)
	assert.Equal(t, "2024-06-10", s.Range.To)
	assert.Equal(t, 200, s.Totals.Calories)
	assert.Equal(t, 1, s.Totals.Entries)

	s, err = svc.Summary(ctx, "u1", "7d")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", s.Range.From)
	assert.Equal(t, 400, s.Totals.Calories)
	assert.Equal(t, 57, s.DailyAverage.Calories)

	s, err = svc.Summary(ctx, "u1", "30d")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Totals.Entries)
	assert.Equal(t, 1, s.Totals.Unparsed)
	assert.Equal(t, 600, s.Totals.Calories)

	_, err = svc.Summary(ctx, "u1", "1y")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyticsSeries(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, foods := newAnalyticsFixture(now)
	foods.add("u1", now, sampleInfo)
	foods.add("u1", now.Add(-time.Hour), sampleInfo)
	foods.add("u1", now.AddDate(0, 0, -3), sampleInfo)
	ctx := context.Background()

	s, err := svc.Series(ctx, "u1", "protein", "7d", false)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, "2024-06-07", s.Points[0].Date)
	assert.Equal(t, 10.0, s.Points[0].Value)
	assert.Equal(t, 20.0, s.Points[1].Value)
	assert.Equal(t, 2, s.Points[1].Entries)

	s, err = svc.Series(ctx, "u1", "", "7d", true)
	require.NoError(t, err)
	assert.Equal(t, "calories", s.Nutrient)
	require.Len(t, s.Points, 7)
	assert.Equal(t, "2024-06-04", s.Points[0].Date)
	assert.Zero(t, s.Points[0].Value)
	assert.Equal(t, 400.0, s.Points[6].Value)

	_, err = svc.Series(ctx, "u1", "sodium", "7d", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyticsBreakdown(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, foods := newAnalyticsFixture(now)
	foods.add("u1", now, sampleInfo)
	foods.add("u1", now.AddDate(0, 0, -1), sampleInfo)

	b, err := svc.Breakdown(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", b.Date)
	require.Len(t, b.Slices, 5)
	assert.Equal(t, BreakdownSlice{Name: "Calories", Value: 200}, b.Slices[0])
	assert.Equal(t, BreakdownSlice{Name: "Carbs", Value: 30}, b.Slices[3])
}
