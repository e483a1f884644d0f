package models

import "time"

// FoodEntry is one logged food. NutritionInfo keeps the model's text verbatim.
type FoodEntry struct {
	ID            string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID        string    `gorm:"index:idx_food_user_ts,priority:1;not null" bson:"user_id" json:"user_id"`
	FoodName      string    `gorm:"not null" bson:"food_name" json:"food_name"`
	Quantity      string    `bson:"quantity" json:"quantity"` // "200g", "1 cup"
	NutritionInfo string    `gorm:"type:text" bson:"nutrition_info" json:"nutrition_info"`
	Image         string    `gorm:"type:text" bson:"image,omitempty" json:"image,omitempty"` // base64 data URI
	ImageURL      string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Confidence    *float64  `bson:"confidence,omitempty" json:"confidence,omitempty"`
	MealType      string    `gorm:"size:16" bson:"meal_type,omitempty" json:"meal_type,omitempty"`
	Timestamp     time.Time `gorm:"column:logged_at;index:idx_food_user_ts,priority:2;not null" bson:"timestamp" json:"timestamp"`
}

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// ValidMealType accepts the known meal types and the empty string.
func ValidMealType(s string) bool {
	switch s {
	case "", MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}
