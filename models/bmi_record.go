package models

import "time"

// BMIRecord is never updated; each computation appends one.
type BMIRecord struct {
	ID       string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID   string    `gorm:"index;not null" bson:"user_id" json:"-"`
	BMI      float64   `bson:"bmi" json:"bmi"`
	Category string    `gorm:"size:16" bson:"category" json:"category"`
	Date     time.Time `gorm:"index" bson:"date" json:"date"`
}
