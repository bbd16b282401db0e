package repository

import (
	"time"

	"learning_companion_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Upsert 按 (user, plan, day, subtopic) 写入完成状态，completed_at 随状态置位或清空
func (r *ProgressRepository) Upsert(userID, planID string, day int, subtopicID string, completed bool, now time.Time) error {
	row := &model.DailyProgress{
		UserID:     userID,
		PlanID:     planID,
		DayNumber:  day,
		SubtopicID: subtopicID,
		Completed:  completed,
	}
	row.CreatedAt = now
	if completed {
		row.CompletedAt = &now
	}

	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "plan_id"}, {Name: "day_number"}, {Name: "subtopic_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at"}),
	}).Create(row).Error
}

func (r *ProgressRepository) FindByDay(userID, planID string, day int) ([]model.DailyProgress, error) {
	var rows []model.DailyProgress
	err := r.DB.Where("user_id = ? AND plan_id = ? AND day_number = ?", userID, planID, day).
		Find(&rows).Error
	return rows, err
}

// CountCompleted 统计用户所有已完成的子主题
func (r *ProgressRepository) CountCompleted(userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.DailyProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}
