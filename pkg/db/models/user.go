package models

import "time"

// User represents an account that owns contacts.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;size:50"`
	Email        string    `gorm:"column:email;size:250;not null;uniqueIndex"`
	Password     string    `gorm:"column:password;size:255;not null"`
	Avatar       *string   `gorm:"column:avatar;size:255"`
	RefreshToken *string   `gorm:"column:refresh_token;size:255"`
	Confirmed    bool      `gorm:"column:confirmed;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
