package service

import (
	"fmt"
	"testing"
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/repository"
	"learning_companion_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLearningService(t *testing.T, db *gorm.DB, clock *fakeClock) *LearningService {
	t.Helper()
	svc := NewLearningService(
		repository.NewLearningPlanRepository(db),
		repository.NewProgressRepository(db),
		repository.NewQuizResultRepository(db),
		NewMemoryPlanCache(),
	)
	svc.now = clock.Now
	return svc
}

func samplePlanData(topic string, days int) *model.PlanData {
	plan := &model.PlanData{
		Topic:     topic,
		TotalDays: days,
		Level:     model.LevelBeginner,
		DailyTime: "45 minutes",
	}
	for d := 1; d <= days; d++ {
		plan.Days = append(plan.Days, model.DayPlan{
			Day:   d,
			Title: fmt.Sprintf("Day %d title", d),
			Subtopics: []model.Subtopic{
				{ID: fmt.Sprintf("d%d-a", d), Title: "First", Explanation: fmt.Sprintf("Explanation %d-a", d)},
				{ID: fmt.Sprintf("d%d-b", d), Title: "Second", Explanation: fmt.Sprintf("Explanation %d-b", d)},
			},
		})
	}
	return plan
}
