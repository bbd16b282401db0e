package model

import "time"

// DailyProgress 以 (user, plan, day, subtopic) 唯一，后写覆盖
type DailyProgress struct {
	UUIDBase
	UserID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_daily_progress_key" json:"user_id"`
	PlanID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_daily_progress_key" json:"plan_id"`
	DayNumber   int        `gorm:"not null;uniqueIndex:idx_daily_progress_key" json:"day_number"`
	SubtopicID  string     `gorm:"size:128;not null;uniqueIndex:idx_daily_progress_key" json:"subtopic_id"`
	Completed   bool       `gorm:"not null" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (DailyProgress) TableName() string { return "daily_progress" }
