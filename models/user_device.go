package models

import "time"

type UserDevice struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID      string    `gorm:"size:128;uniqueIndex:idx_device_user_token,priority:1" bson:"user_id" json:"-"`
	Platform    string    `gorm:"size:16" bson:"platform" json:"platform"` // "web" | "android" | "ios"
	TokenHash   string    `gorm:"size:64;uniqueIndex:idx_device_user_token,priority:2" bson:"token_hash" json:"-"`
	EndpointARN string    `gorm:"size:256" bson:"endpoint_arn" json:"endpoint_arn"`
	Enabled     bool      `gorm:"default:true" bson:"enabled" json:"enabled"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
