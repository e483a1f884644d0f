package models

import "time"

// DailyGoal holds a user's macro targets for one calendar day.
type DailyGoal struct {
	UserID    string    `gorm:"primaryKey;size:128" bson:"user_id" json:"-"`
	Day       string    `gorm:"primaryKey;size:10" bson:"day" json:"day"` // YYYY-MM-DD
	Carbs     float64   `bson:"carbs" json:"carbs"`                       // g
	Protein   float64   `bson:"protein" json:"protein"`                   // g
	Fat       float64   `bson:"fat" json:"fat"`                           // g
	Calories  float64   `bson:"calories" json:"calories"`                 // kcal
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
