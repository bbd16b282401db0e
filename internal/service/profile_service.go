package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/repository"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 无法从 daily_time 解析出分钟数时按 30 分钟估算
const defaultDailyMinutes = 30

type ProfileService struct {
	Repo     *repository.ProfileRepository
	Learning *LearningService

	// 已确认存在资料的用户，避免每个请求都写库
	provisioned sync.Map
}

func NewProfileService(repo *repository.ProfileRepository, learning *LearningService) *ProfileService {
	return &ProfileService{Repo: repo, Learning: learning}
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

type ProfileStats struct {
	TotalPlans       int `json:"total_plans"`
	CompletedQuizzes int `json:"completed_quizzes"`
	AverageScore     int `json:"average_score"`
	TotalStudyTime   int `json:"total_study_time"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func profileFromClaims(claims *util.Claims) *model.Profile {
	return &model.Profile{
		ID:        claims.UserID(),
		Email:     claims.Email,
		FullName:  optional(claims.UserMetadata.FullName),
		AvatarURL: optional(claims.UserMetadata.AvatarURL),
	}
}

// EnsureProfile 首次见到该用户时按令牌信息建档
func (s *ProfileService) EnsureProfile(claims *util.Claims) error {
	if claims == nil || claims.UserID() == "" {
		return util.ErrInvalidInput
	}
	if _, ok := s.provisioned.Load(claims.UserID()); ok {
		return nil
	}
	if err := s.Repo.EnsureExists(profileFromClaims(claims)); err != nil {
		return storeError("ensure profile", err)
	}
	s.provisioned.Store(claims.UserID(), struct{}{})
	return nil
}

func (s *ProfileService) Get(ctx context.Context, claims *util.Claims) (*model.Profile, error) {
	profile, err := s.Repo.FindByID(claims.UserID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.Repo.EnsureExists(profileFromClaims(claims)); err != nil {
			return nil, storeError("create profile", err)
		}
		profile, err = s.Repo.FindByID(claims.UserID())
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || repository.IsNotProvisioned(err) {
			return nil, util.ErrProfileNotFound
		}
		return nil, storeError("get profile", err)
	}
	return profile, nil
}

// Update 只修改请求中给出的字段，邮箱始终取自令牌
func (s *ProfileService) Update(ctx context.Context, claims *util.Claims, req UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.Get(ctx, claims)
	if err != nil {
		return nil, err
	}
	profile.Email = claims.Email
	if req.FullName != nil {
		profile.FullName = optional(strings.TrimSpace(*req.FullName))
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = optional(strings.TrimSpace(*req.AvatarURL))
	}
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Upsert(profile); err != nil {
		return nil, storeError("update profile", err)
	}
	return profile, nil
}

// Stats 汇总计划数、测验数、平均分和预计学习时长（分钟）
func (s *ProfileService) Stats(ctx context.Context, userID string) (*ProfileStats, error) {
	snap, err := s.Learning.Plans(ctx, userID)
	if err != nil {
		return nil, err
	}
	results, err := s.Learning.QuizResults(ctx, userID)
	if err != nil {
		logger.Log.Warn("Failed to load quiz results for stats", zap.String("userID", userID), zap.Error(err))
		results = nil
	}

	stats := &ProfileStats{
		TotalPlans:       len(snap.Plans),
		CompletedQuizzes: len(results),
		AverageScore:     averageScore(results),
	}
	for _, plan := range snap.Plans {
		stats.TotalStudyTime += leadingInt(plan.DailyTime, defaultDailyMinutes) * plan.DurationDays
	}
	return stats, nil
}

// averageScore 每题按 2 分折算满分
func averageScore(results []model.QuizResult) int {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		if r.TotalQuestions > 0 {
			sum += float64(r.Score) / float64(r.TotalQuestions*2) * 100
		}
	}
	return int(math.Round(sum / float64(len(results))))
}

// leadingInt 解析第一个单词开头的整数，例如 "45 minutes" 得到 45
func leadingInt(s string, fallback int) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return fallback
	}
	word := fields[0]
	end := 0
	for end < len(word) && (word[end] >= '0' && word[end] <= '9' || end == 0 && (word[end] == '-' || word[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(word[:end])
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
