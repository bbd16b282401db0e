package repository

import (
	"errors"
	"testing"
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/pkg/database"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
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

func samplePlan(userID, topic string) *model.LearningPlan {
	return model.NewLearningPlan(userID, model.PlanData{
		Topic:     topic,
		TotalDays: 2,
		Level:     model.LevelBeginner,
		DailyTime: "30 minutes",
		Days: []model.DayPlan{
			{Day: 1, Title: "Basics", Subtopics: []model.Subtopic{{ID: "1-1", Title: "Intro"}}},
			{Day: 2, Title: "More", Subtopics: []model.Subtopic{{ID: "2-1", Title: "Next"}}},
		},
	})
}

func TestLearningPlanRepository_CreateActiveDeactivatesOthers(t *testing.T) {
	repo := NewLearningPlanRepository(newTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := samplePlan("u1", "Go")
	first.CreatedAt = base
	require.NoError(t, repo.CreateActive(first))

	second := samplePlan("u1", "Rust")
	second.CreatedAt = base.Add(time.Hour)
	require.NoError(t, repo.CreateActive(second))

	other := samplePlan("u2", "Zig")
	other.CreatedAt = base
	require.NoError(t, repo.CreateActive(other))

	plans, err := repo.FindByUser("u1")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Rust", plans[0].Topic)
	assert.True(t, plans[0].IsActive)
	assert.False(t, plans[1].IsActive)
	assert.Equal(t, "Intro", plans[1].PlanData.Data().Days[0].Subtopics[0].Title)

	others, err := repo.FindByUser("u2")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.True(t, others[0].IsActive)
}

func TestLearningPlanRepository_FindByIDScopedToUser(t *testing.T) {
	repo := NewLearningPlanRepository(newTestDB(t))
	plan := samplePlan("u1", "Go")
	require.NoError(t, repo.CreateActive(plan))

	got, err := repo.FindByID("u1", plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)

	_, err = repo.FindByID("u2", plan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfileRepository_FindByID(t *testing.T) {
	repo := NewProfileRepository(newTestDB(t))

	missing, err := repo.FindByID("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, missing)

	require.NoError(t, repo.EnsureExists(&model.Profile{ID: "u1", Email: "u1@example.com"}))
	got, err := repo.FindByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
}

func TestProgressRepository_UpsertToggles(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert("u1", "p1", 1, "1-1", true, now))
	rows, err := repo.FindByDay("u1", "p1", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Completed)
	require.NotNil(t, rows[0].CompletedAt)

	require.NoError(t, repo.Upsert("u1", "p1", 1, "1-1", false, now.Add(time.Minute)))
	rows, err = repo.FindByDay("u1", "p1", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Completed)
	assert.Nil(t, rows[0].CompletedAt)

	rows, err = repo.FindByDay("u1", "p1", 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestQuizResultRepository_FindLatest(t *testing.T) {
	repo := NewQuizResultRepository(newTestDB(t))
	base := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

	for i, score := range []int{4, 9} {
		r := &model.QuizResult{
			UserID:         "u1",
			PlanID:         "p1",
			DayNumber:      1,
			Questions:      []model.QuizQuestion{{ID: "q1", Type: model.QuestionMCQ, Points: 2}},
			Answers:        []model.GradedAnswer{{QuestionID: "q1", Score: score}},
			Score:          score,
			TotalQuestions: 1,
			CompletedAt:    base,
		}
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(r))
	}

	latest, err := repo.FindLatest("u1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 9, latest.Score)
	require.Len(t, latest.Questions, 1)
	assert.Equal(t, model.QuestionMCQ, latest.Questions[0].Type)

	_, err = repo.FindLatest("u1", "p1", 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIsNotProvisioned(t *testing.T) {
	assert.True(t, IsNotProvisioned(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsNotProvisioned(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsNotProvisioned(&mysql.MySQLError{Number: 1146}))
	assert.True(t, IsNotProvisioned(errors.New("no such table: learning_plans")))
	assert.False(t, IsNotProvisioned(errors.New("connection refused")))
	assert.False(t, IsNotProvisioned(nil))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	_, err = NewLearningPlanRepository(db).FindByUser("u1")
	assert.True(t, IsNotProvisioned(err))
}
