package services

import (
	"context"
	"fmt"
	"time"

	"nutrilog/repository"
	"nutrilog/utils"
)

const (
	weekStripDays  = 7
	dashboardDays  = 364 // 52 weeks
	maxHeatmapDays = 366
	monthlyMonths  = 6
)

type StreakService struct {
	foods repository.FoodEntryRepository
	loc   locator
	now   func() time.Time
}

func NewStreakService(foods repository.FoodEntryRepository, users repository.UserRepository, defaultTZ *time.Location) *StreakService {
	return &StreakService{
		foods: foods,
		loc:   locator{users: users, fallback: defaultTZ},
		now:   time.Now,
	}
}

type StreakSummary struct {
	Current      int                `json:"current_streak"`
	Achievements []string           `json:"achievements"`
	Week         []utils.HeatmapDay `json:"week"`
	TotalEntries int                `json:"total_entries"`
}

// timestamps loads entry times from `since` on; a zero since loads everything.
func (s *StreakService) timestamps(ctx context.Context, userID string, since time.Time) ([]time.Time, *time.Location, error) {
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	times, err := s.foods.Timestamps(ctx, userID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("list entry times: %w", err)
	}
	return times, loc, nil
}

func (s *StreakService) Summary(ctx context.Context, userID string) (*StreakSummary, error) {
	times, loc, err := s.timestamps(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	streak := utils.Streak(times, now, loc)
	return &StreakSummary{
		Current:      streak,
		Achievements: utils.Achievements(streak),
		Week:         utils.Heatmap(times, now, weekStripDays, loc),
		TotalEntries: len(times),
	}, nil
}

// Heatmap covers the trailing days, oldest first. days <= 0 means 52 weeks.
func (s *StreakService) Heatmap(ctx context.Context, userID string, days int) ([]utils.HeatmapDay, error) {
	if days <= 0 {
		days = dashboardDays
	}
	if days > maxHeatmapDays {
		return nil, fmt.Errorf("days must be at most %d: %w", maxHeatmapDays, ErrInvalidInput)
	}
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	since := utils.DayStart(now, loc).AddDate(0, 0, -(days - 1))
	times, _, err := s.timestamps(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return utils.Heatmap(times, now, days, loc), nil
}

// Monthly returns the last six months, newest first.
func (s *StreakService) Monthly(ctx context.Context, userID string) ([]utils.MonthStat, error) {
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().In(loc)
	since := time.Date(now.Year(), now.Month()-(monthlyMonths-1), 1, 0, 0, 0, 0, loc)
	times, _, err := s.timestamps(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return utils.MonthlyStats(times, now, monthlyMonths, loc), nil
}
