// Package repository persists users, food entries, goals and BMI history in either
// postgres (gorm) or MongoDB. Services only see the interfaces below.
package repository

import (
	"context"
	"errors"
	"time"

	"nutrilog/models"
)

// ErrNotFound is returned when a keyed lookup or owner-scoped delete matches nothing.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	Upsert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type FoodEntryRepository interface {
	Create(ctx context.Context, e *models.FoodEntry) error
	// List returns entries in [from, to), newest first. A zero bound is open.
	List(ctx context.Context, userID string, from, to time.Time) ([]models.FoodEntry, error)
	// Timestamps returns only the entry times from since on, newest first.
	// A zero since is open.
	Timestamps(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	Delete(ctx context.Context, userID, id string) error
}

type GoalRepository interface {
	// Upsert creates or overwrites the goal for (UserID, Day).
	Upsert(ctx context.Context, g *models.DailyGoal) error
	Get(ctx context.Context, userID, day string) (*models.DailyGoal, error)
}

type BMIRepository interface {
	Append(ctx context.Context, r *models.BMIRecord) error
	// List returns the history oldest first.
	List(ctx context.Context, userID string) ([]models.BMIRecord, error)
}

type DeviceRepository interface {
	// Upsert matches on (UserID, TokenHash) and refreshes the endpoint.
	Upsert(ctx context.Context, d *models.UserDevice) (*models.UserDevice, error)
	ListEnabled(ctx context.Context, userID string) ([]models.UserDevice, error)
	SetEnabled(ctx context.Context, userID string, enabled bool) error
}

type ReminderRepository interface {
	// MarkSent records the reminder and reports false if it was already recorded.
	MarkSent(ctx context.Context, r *models.Reminder) (bool, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users     UserRepository
	Foods     FoodEntryRepository
	Goals     GoalRepository
	BMI       BMIRepository
	Devices   DeviceRepository
	Reminders ReminderRepository

	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Migrate creates tables or indexes for the backend.
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
