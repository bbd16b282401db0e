package repository

import (
	"learning_companion_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPlanRepository struct {
	DB *gorm.DB
}

func NewLearningPlanRepository(db *gorm.DB) *LearningPlanRepository {
	return &LearningPlanRepository{DB: db}
}

// FindByUser 按创建时间倒序返回用户的全部计划
func (r *LearningPlanRepository) FindByUser(userID string) ([]model.LearningPlan, error) {
	var plans []model.LearningPlan
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&plans).Error
	return plans, err
}

func (r *LearningPlanRepository) FindByID(userID, planID string) (*model.LearningPlan, error) {
	var plan model.LearningPlan
	err := r.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateActive 停用该用户已有计划后插入新的活动计划，两步在同一事务内
func (r *LearningPlanRepository) CreateActive(plan *model.LearningPlan) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.LearningPlan{}).
			Where("user_id = ? AND is_active = ?", plan.UserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		plan.IsActive = true
		return tx.Create(plan).Error
	})
}
