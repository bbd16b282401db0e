package repository

import (
	"learning_companion_backend/internal/model"

	"gorm.io/gorm"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

func (r *QuizResultRepository) Create(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

// FindLatest 取某天最新的一次测验结果
func (r *QuizResultRepository) FindLatest(userID, planID string, day int) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.Where("user_id = ? AND plan_id = ? AND day_number = ?", userID, planID, day).
		Order("created_at DESC").
		Limit(1).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *QuizResultRepository) FindByUser(userID string) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&results).Error
	return results, err
}
