package models

import "time"

// Reminder records a sent meal reminder so it goes out at most once per day.
type Reminder struct {
	UserID   string    `gorm:"primaryKey;size:128" bson:"user_id"`
	Day      string    `gorm:"primaryKey;size:10" bson:"day"`
	MealType string    `gorm:"primaryKey;size:16" bson:"meal_type"`
	Channel  string    `gorm:"size:8" bson:"channel"` // "push" | "email"
	SentAt   time.Time `bson:"sent_at"`
}
