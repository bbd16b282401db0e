package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/repository"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LearningService struct {
	PlanRepo     *repository.LearningPlanRepository
	ProgressRepo *repository.ProgressRepository
	ResultRepo   *repository.QuizResultRepository
	Cache        PlanCache

	now func() time.Time
}

func NewLearningService(
	planRepo *repository.LearningPlanRepository,
	progressRepo *repository.ProgressRepository,
	resultRepo *repository.QuizResultRepository,
	cache PlanCache,
) *LearningService {
	if cache == nil {
		cache = NewMemoryPlanCache()
	}
	return &LearningService{
		PlanRepo:     planRepo,
		ProgressRepo: progressRepo,
		ResultRepo:   resultRepo,
		Cache:        cache,
		now:          time.Now,
	}
}

func storeError(op string, err error) error {
	logger.Log.Error("Learning store error", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w: %v", op, util.ErrStoreUnavailable, err)
}

// CreatePlan 停用用户已有计划，写入新的活动计划并刷新缓存
func (s *LearningService) CreatePlan(ctx context.Context, userID string, data *model.PlanData) (*model.LearningPlan, error) {
	if data == nil || len(data.Days) == 0 {
		return nil, fmt.Errorf("%w: plan has no days", util.ErrInvalidInput)
	}

	row := model.NewLearningPlan(userID, *data)
	row.CreatedAt = s.now()
	if err := s.PlanRepo.CreateActive(row); err != nil {
		return nil, storeError("create plan", err)
	}

	logger.Log.Info("Learning plan created",
		zap.String("userID", userID),
		zap.String("planID", row.ID),
		zap.Int("days", len(data.Days)))

	if _, err := s.Refresh(ctx, userID); err != nil {
		return row, err
	}
	return row, nil
}

// Refresh 重新读取用户的计划列表写入缓存。读取失败时缓存保持原样。
func (s *LearningService) Refresh(ctx context.Context, userID string) (*PlanSnapshot, error) {
	plans, err := s.PlanRepo.FindByUser(userID)
	if err != nil {
		if repository.IsNotProvisioned(err) {
			logger.Log.Warn("Learning plans table not provisioned", zap.Error(err))
			if snap, ok := s.Cache.Get(ctx, userID); ok {
				return snap, nil
			}
			return newPlanSnapshot(nil), nil
		}
		return nil, storeError("refresh plans", err)
	}

	snap := newPlanSnapshot(plans)
	s.Cache.Set(ctx, userID, snap)
	return snap, nil
}

func (s *LearningService) Plans(ctx context.Context, userID string) (*PlanSnapshot, error) {
	if snap, ok := s.Cache.Get(ctx, userID); ok {
		return snap, nil
	}
	return s.Refresh(ctx, userID)
}

func (s *LearningService) ActivePlan(ctx context.Context, userID string) (*model.LearningPlan, error) {
	snap, err := s.Plans(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Active, nil
}

// GetPlan 只返回属于该用户的计划
func (s *LearningService) GetPlan(ctx context.Context, userID, planID string) (*model.LearningPlan, error) {
	plan, err := s.PlanRepo.FindByID(userID, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || repository.IsNotProvisioned(err) {
			return nil, util.ErrPlanNotFound
		}
		return nil, storeError("get plan", err)
	}
	return plan, nil
}

func (s *LearningService) UpsertProgress(ctx context.Context, userID, planID string, day int, subtopicID string, completed bool) error {
	if day < 1 || subtopicID == "" {
		return util.ErrInvalidInput
	}
	if err := s.ProgressRepo.Upsert(userID, planID, day, subtopicID, completed, s.now()); err != nil {
		return storeError("upsert progress", err)
	}
	return nil
}

// GetProgress 读取失败时返回空列表
func (s *LearningService) GetProgress(ctx context.Context, userID, planID string, day int) []model.DailyProgress {
	rows, err := s.ProgressRepo.FindByDay(userID, planID, day)
	if err != nil {
		logger.Log.Warn("Failed to load progress", zap.String("planID", planID), zap.Int("day", day), zap.Error(err))
		return []model.DailyProgress{}
	}
	if rows == nil {
		rows = []model.DailyProgress{}
	}
	return rows
}

// SaveQuizResult 每次提交都插入新记录
func (s *LearningService) SaveQuizResult(ctx context.Context, userID, planID string, day int, questions []model.QuizQuestion, answers []model.GradedAnswer, score int) (*model.QuizResult, error) {
	now := s.now()
	result := &model.QuizResult{
		UserID:         userID,
		PlanID:         planID,
		DayNumber:      day,
		Questions:      questions,
		Answers:        answers,
		Score:          score,
		TotalQuestions: len(questions),
		CompletedAt:    now,
	}
	result.CreatedAt = now

	if err := s.ResultRepo.Create(result); err != nil {
		return nil, storeError("save quiz result", err)
	}
	return result, nil
}

// LatestQuizResult 没有记录或读取失败时返回 nil
func (s *LearningService) LatestQuizResult(ctx context.Context, userID, planID string, day int) *model.QuizResult {
	result, err := s.ResultRepo.FindLatest(userID, planID, day)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("Failed to load quiz result", zap.String("planID", planID), zap.Int("day", day), zap.Error(err))
		}
		return nil
	}
	return result
}

func (s *LearningService) QuizResults(ctx context.Context, userID string) ([]model.QuizResult, error) {
	results, err := s.ResultRepo.FindByUser(userID)
	if err != nil {
		if repository.IsNotProvisioned(err) {
			return []model.QuizResult{}, nil
		}
		return nil, storeError("list quiz results", err)
	}
	return results, nil
}

func (s *LearningService) CompletedSubtopics(ctx context.Context, userID string) int64 {
	count, err := s.ProgressRepo.CountCompleted(userID)
	if err != nil {
		logger.Log.Warn("Failed to count completed subtopics", zap.Error(err))
		return 0
	}
	return count
}

const dayDuration = 24 * time.Hour

func daysSince(start, now time.Time) int {
	return int(math.Floor(float64(now.Sub(start)) / float64(dayDuration)))
}

// CurrentDay 按创建以来的整天数推算当前是第几天，范围 [1, 总天数]
func CurrentDay(plan *model.LearningPlan, now time.Time) int {
	total := plan.TotalDays()
	current := daysSince(plan.CreatedAt, now) + 1
	if current > total {
		current = total
	}
	if current < 1 {
		current = 1
	}
	return current
}

// ElapsedProgress 已过天数占 duration_days 的百分比，上限 100
func ElapsedProgress(plan *model.LearningPlan, now time.Time) float64 {
	if plan.DurationDays <= 0 {
		return 0
	}
	passed := daysSince(plan.CreatedAt, now) + 1
	return math.Max(0, math.Min(float64(passed)/float64(plan.DurationDays)*100, 100))
}
