package services

import (
	"context"
	"fmt"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
	"nutrilog/utils"

	"go.uber.org/zap"
)

type Pusher interface {
	HasDevices(ctx context.Context, userID string) (bool, error)
	PushToUser(ctx context.Context, userID, title, body string, data map[string]string) (int, error)
}

type Emailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier delivers an in-app message to the user's open sockets.
type Notifier interface {
	Broadcast(userID string, payload any)
}

// ReminderNotice is the socket message sent alongside a delivered reminder.
type ReminderNotice struct {
	Kind     string `json:"kind"`
	MealType string `json:"meal_type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Channel  string `json:"channel"`
}

type mealReminder struct {
	meal  string
	title string
	body  string
}

// dueReminder maps the local hour to the meal that should be logged by now:
// breakfast before 12, lunch 12-16, dinner from 18. 16-18 has none.
func dueReminder(hour int) (mealReminder, bool) {
	switch {
	case hour < 12:
		return mealReminder{models.MealBreakfast, "Breakfast Reminder", "Don't forget to log your breakfast!"}, true
	case hour < 16:
		return mealReminder{models.MealLunch, "Lunch Reminder", "Time to log your lunch!"}, true
	case hour >= 18:
		return mealReminder{models.MealDinner, "Dinner Reminder", "Remember to log your dinner!"}, true
	}
	return mealReminder{}, false
}

type ReminderService struct {
	users     repository.UserRepository
	foods     repository.FoodEntryRepository
	reminders repository.ReminderRepository
	push      Pusher   // may be nil
	mail      Emailer  // may be nil
	notify    Notifier // may be nil
	defaultTZ *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewReminderService(store *repository.Store, push Pusher, mail Emailer, notify Notifier, defaultTZ *time.Location, log *zap.Logger) *ReminderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderService{
		users:     store.Users,
		foods:     store.Foods,
		reminders: store.Reminders,
		push:      push,
		mail:      mail,
		notify:    notify,
		defaultTZ: defaultTZ,
		log:       log,
		now:       time.Now,
	}
}

type ReminderRun struct {
	Checked int `json:"checked"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// RunOnce checks every user once. Per-user failures are logged and counted.
func (s *ReminderService) RunOnce(ctx context.Context) (ReminderRun, error) {
	var run ReminderRun
	users, err := s.users.List(ctx)
	if err != nil {
		return run, fmt.Errorf("list users: %w", err)
	}
	now := s.now()
	for i := range users {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		run.Checked++
		sent, err := s.remindUser(ctx, &users[i], now)
		if err != nil {
			run.Failed++
			s.log.Warn("meal reminder failed", zap.String("user_id", users[i].ID), zap.Error(err))
			continue
		}
		if sent {
			run.Sent++
		}
	}
	return run, nil
}

func (s *ReminderService) remindUser(ctx context.Context, u *models.User, now time.Time) (bool, error) {
	loc := utils.LoadLocation(u.Timezone, s.defaultTZ)
	local := now.In(loc)
	due, ok := dueReminder(local.Hour())
	if !ok {
		return false, nil
	}

	start := utils.DayStart(now, loc)
	entries, err := s.foods.List(ctx, u.ID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.MealType == due.meal {
			return false, nil
		}
	}

	channel := ""
	if s.push != nil {
		has, err := s.push.HasDevices(ctx, u.ID)
		if err != nil {
			return false, err
		}
		if has {
			channel = "push"
		}
	}
	if channel == "" && s.mail != nil && u.Email != "" {
		channel = "email"
	}
	if channel == "" {
		return false, nil
	}

	first, err := s.reminders.MarkSent(ctx, &models.Reminder{
		UserID:   u.ID,
		Day:      start.Format(utils.DayLayout),
		MealType: due.meal,
		Channel:  channel,
		SentAt:   now,
	})
	if err != nil || !first {
		return false, err
	}

	switch channel {
	case "push":
		n, err := s.push.PushToUser(ctx, u.ID, due.title, due.body, map[string]string{"meal_type": due.meal})
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, fmt.Errorf("no device accepted the %s reminder: %w", due.meal, ErrUpstream)
		}
	case "email":
		subject, body := utils.MealReminderEmail(u.Name, due.meal)
		if err := s.mail.Send(ctx, u.Email, subject, body); err != nil {
			return false, fmt.Errorf("%v: %w", err, ErrUpstream)
		}
	}
	if s.notify != nil {
		s.notify.Broadcast(u.ID, ReminderNotice{
			Kind: "reminder", MealType: due.meal, Title: due.title, Body: due.body, Channel: channel,
		})
	}
	s.log.Info("meal reminder sent",
		zap.String("user_id", u.ID), zap.String("meal", due.meal), zap.String("channel", channel))
	return true, nil
}

// Run calls RunOnce now and then every interval until ctx is done.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		run, err := s.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.log.Error("reminder run failed", zap.Error(err))
		} else {
			s.log.Info("reminder run finished",
				zap.Int("checked", run.Checked), zap.Int("sent", run.Sent), zap.Int("failed", run.Failed))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
