package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_GetUserDashboard(t *testing.T) {
	db := newTestDB(t)
	clock := &fakeClock{t: epoch}
	learning := newTestLearningService(t, db, clock)
	svc := NewDashboardService(learning)
	svc.now = clock.Now
	ctx := context.Background()

	empty, err := svc.GetUserDashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, empty.ActivePlan)
	assert.Nil(t, empty.TodayLesson)
	assert.Zero(t, empty.LearningStats.TotalPlans)

	plan, err := learning.CreatePlan(ctx, "u1", samplePlanData("Go", 4))
	require.NoError(t, err)
	require.NoError(t, learning.UpsertProgress(ctx, "u1", plan.ID, 1, "d1-a", true))

	clock.Advance(25 * time.Hour)
	dash, err := svc.GetUserDashboard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, dash.ActivePlan)
	assert.Equal(t, plan.ID, dash.ActivePlan.ID)
	assert.Equal(t, 2, dash.CurrentDay)
	require.NotNil(t, dash.TodayLesson)
	assert.Equal(t, "Day 2 title", dash.TodayLesson.Title)
	assert.Equal(t, 50, dash.Progress)
	assert.Equal(t, 1, dash.LearningStats.TotalPlans)
	assert.EqualValues(t, 1, dash.LearningStats.CompletedSubtopics)

	clock.Advance(30 * 24 * time.Hour)
	late, err := svc.GetUserDashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, late.CurrentDay)
	assert.Equal(t, 100, late.Progress)
}
