package models

import "time"

// User is keyed by the auth provider's subject claim.
type User struct {
	ID          string    `gorm:"primaryKey;size:128" bson:"_id" json:"id"`
	Email       string    `gorm:"index" bson:"email" json:"email"`
	Name        string    `bson:"name" json:"name"`
	DateOfBirth time.Time `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Timezone    string    `gorm:"size:64" bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
