package utils

import "errors"

// ErrGoalNotSet is returned for a zero, negative or missing target.
var ErrGoalNotSet = errors.New("goal not set")

// GoalPercent is min(consumed/goal, 1) * 100, never below 0.
func GoalPercent(consumed, goal float64) (float64, error) {
	if goal <= 0 {
		return 0, ErrGoalNotSet
	}
	p := consumed / goal
	switch {
	case p > 1:
		p = 1
	case p < 0:
		p = 0
	}
	return Round1(p * 100), nil
}
