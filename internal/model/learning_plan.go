package model

import (
	"time"

	"gorm.io/datatypes"
)

type LearningPlan struct {
	UUIDBase
	UserID       string                       `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Topic        string                       `gorm:"size:255;not null" json:"topic"`
	DurationDays int                          `gorm:"not null" json:"duration_days"`
	Level        Level                        `gorm:"size:32;not null" json:"level"`
	DailyTime    string                       `gorm:"size:64;not null" json:"daily_time"`
	PlanData     datatypes.JSONType[PlanData] `json:"plan_data"`
	IsActive     bool                         `gorm:"not null;index" json:"is_active"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

func (LearningPlan) TableName() string { return "learning_plans" }

// TotalDays 以生成的天数为准，缺失时退回 duration_days
func (p *LearningPlan) TotalDays() int {
	if n := len(p.PlanData.Data().Days); n > 0 {
		return n
	}
	return p.DurationDays
}

// NewLearningPlan 由生成结果构造一条待插入的记录
func NewLearningPlan(userID string, data PlanData) *LearningPlan {
	return &LearningPlan{
		UserID:       userID,
		Topic:        data.Topic,
		DurationDays: data.TotalDays,
		Level:        data.Level,
		DailyTime:    data.DailyTime,
		PlanData:     datatypes.NewJSONType(data),
	}
}
