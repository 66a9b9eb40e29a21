package models

import "gorm.io/gorm"

// User represents a registered account.
type User struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Fullname    string `json:"fullname" gorm:"type:varchar(255)"`
	Username    string `json:"username" gorm:"type:varchar(100)"`
	PhoneNumber string `json:"phone_number" gorm:"type:varchar(32)"`
	Password    string `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Role        string `json:"role" gorm:"type:varchar(50);default:user"`
	ProfileURL  string `json:"profile_url" gorm:"type:varchar(512)"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// UserEdit carries the three fields the edit operation may change. A nil
// field was not part of the payload and is left unchanged; anything else a
// caller submits has no representation here and is ignored outright.
type UserEdit struct {
	Role       *string `json:"role"`
	Fullname   *string `json:"fullname"`
	ProfileURL *string `json:"profile_url"`
}
