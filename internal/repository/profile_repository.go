package repository

import (
	"learning_companion_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByID(id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.DB.Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert 首次访问时建档，之后只覆盖可编辑字段
func (r *ProfileRepository) Upsert(profile *model.Profile) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "avatar_url", "updated_at"}),
	}).Create(profile).Error
}

// EnsureExists 只在不存在时插入，不覆盖已有资料
func (r *ProfileRepository) EnsureExists(profile *model.Profile) error {
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error
}
