package service

import (
	"context"
	"math"
	"time"

	"learning_companion_backend/internal/model"
)

type DashboardService struct {
	Learning *LearningService
	now      func() time.Time
}

func NewDashboardService(learning *LearningService) *DashboardService {
	return &DashboardService{Learning: learning, now: time.Now}
}

type Dashboard struct {
	ActivePlan    *model.LearningPlan `json:"active_plan"`
	TodayLesson   *model.DayPlan      `json:"today_lesson"`
	CurrentDay    int                 `json:"current_day"`
	Progress      int                 `json:"progress"`
	LearningStats LearningStats       `json:"learning_stats"`
}

type LearningStats struct {
	TotalPlans         int   `json:"total_plans"`
	CompletedSubtopics int64 `json:"completed_subtopics"`
	CompletedQuizzes   int   `json:"completed_quizzes"`
}

// GetUserDashboard 没有活跃计划时只返回统计数据
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	snap, err := s.Learning.Plans(ctx, userID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		LearningStats: LearningStats{
			TotalPlans:         len(snap.Plans),
			CompletedSubtopics: s.Learning.CompletedSubtopics(ctx, userID),
		},
	}
	if results, err := s.Learning.QuizResults(ctx, userID); err == nil {
		dashboard.LearningStats.CompletedQuizzes = len(results)
	}

	plan := snap.Active
	if plan == nil {
		return dashboard, nil
	}
	now := s.now()
	dashboard.ActivePlan = plan
	dashboard.Progress = int(math.Round(ElapsedProgress(plan, now)))

	data := plan.PlanData.Data()
	if len(data.Days) > 0 {
		dashboard.CurrentDay = CurrentDay(plan, now)
		if day, ok := data.Day(dashboard.CurrentDay); ok {
			dashboard.TodayLesson = day
		}
	}
	return dashboard, nil
}
