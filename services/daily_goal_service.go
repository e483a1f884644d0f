package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
	"nutrilog/utils"

	"go.uber.org/zap"
)

type DailyGoalService struct {
	goals repository.GoalRepository
	foods repository.FoodEntryRepository
	loc   locator
	feed  *ChangeFeed
	parse utils.NutrientParser
	log   *zap.Logger
	now   func() time.Time
}

func NewDailyGoalService(
	goals repository.GoalRepository, foods repository.FoodEntryRepository, users repository.UserRepository,
	feed *ChangeFeed, parse utils.NutrientParser, defaultTZ *time.Location, log *zap.Logger,
) *DailyGoalService {
	if parse == nil {
		parse = utils.ParseNutrients
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DailyGoalService{
		goals: goals,
		foods: foods,
		loc:   locator{users: users, fallback: defaultTZ},
		feed:  feed,
		parse: parse,
		log:   log,
		now:   time.Now,
	}
}

type GoalInput struct {
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// resolveDay returns the day key and its [start, end) in the user's zone.
// An empty day means today.
func (s *DailyGoalService) resolveDay(ctx context.Context, userID, day string) (string, time.Time, time.Time, error) {
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	var start time.Time
	if day == "" {
		start = utils.DayStart(s.now(), loc)
	} else {
		start, err = utils.ParseDay(day, loc)
		if err != nil {
			return "", time.Time{}, time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", ErrInvalidInput)
		}
	}
	return start.Format(utils.DayLayout), start, start.AddDate(0, 0, 1), nil
}

// Get returns the goal stored for exactly that day.
func (s *DailyGoalService) Get(ctx context.Context, userID, day string) (*models.DailyGoal, error) {
	key, _, _, err := s.resolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.Get(ctx, userID, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("goal for %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// Upsert creates or overwrites the goal for the day. Last writer wins.
func (s *DailyGoalService) Upsert(ctx context.Context, userID, day string, in GoalInput) (*models.DailyGoal, error) {
	if in.Carbs < 0 || in.Protein < 0 || in.Fat < 0 || in.Calories < 0 {
		return nil, fmt.Errorf("goals must not be negative: %w", ErrInvalidInput)
	}
	key, _, _, err := s.resolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	g := &models.DailyGoal{
		UserID:   userID,
		Day:      key,
		Carbs:    in.Carbs,
		Protein:  in.Protein,
		Fat:      in.Fat,
		Calories: in.Calories,
	}
	if err := s.goals.Upsert(ctx, g); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}
	if s.feed != nil {
		s.feed.Publish(userID, GoalsChanged)
	}
	return g, nil
}

type MacroProgress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
	GoalSet  bool    `json:"goal_set"`
}

type GoalProgress struct {
	Date    string                   `json:"date"`
	GoalSet bool                     `json:"goal_set"`
	Macros  map[string]MacroProgress `json:"macros"`
	Totals  utils.Totals             `json:"totals"`
}

// Progress compares the day's intake with its goal. A missing or zero goal
// reports 0% with goal_set=false rather than failing.
func (s *DailyGoalService) Progress(ctx context.Context, userID, day string) (*GoalProgress, error) {
	key, start, end, err := s.resolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	var goal models.DailyGoal
	g, err := s.goals.Get(ctx, userID, key)
	switch {
	case err == nil:
		goal = *g
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("get goal: %w", err)
	}

	entries, err := s.foods.List(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	totals := utils.Aggregate(entries, start, end, s.parse)

	out := &GoalProgress{Date: key, Totals: totals, Macros: map[string]MacroProgress{}}
	for _, m := range []struct {
		name     string
		consumed float64
		goal     float64
	}{
		{"calories", float64(totals.Calories), goal.Calories},
		{"protein", totals.Protein, goal.Protein},
		{"carbs", totals.Carbs, goal.Carbs},
		{"fat", totals.Fat, goal.Fat},
	} {
		mp := MacroProgress{Consumed: utils.Round1(m.consumed), Goal: m.goal}
		p, err := utils.GoalPercent(m.consumed, m.goal)
		if err == nil {
			mp.Percent, mp.GoalSet = p, true
			out.GoalSet = true
		}
		out.Macros[m.name] = mp
	}
	return out, nil
}
