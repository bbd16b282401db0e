package model

import "time"

// Profile 用户资料，ID 即认证服务的 subject
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	FullName  *string   `gorm:"size:255" json:"full_name"`
	AvatarURL *string   `gorm:"size:1024" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
