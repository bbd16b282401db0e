package service

import (
	"testing"

	"learning_companion_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestScoreMCQ(t *testing.T) {
	q := model.QuizQuestion{ID: "q1", Type: model.QuestionMCQ, CorrectAnswer: "B", Points: 2}

	right := ScoreMCQ(q, "B")
	assert.Equal(t, 2, right.Score)
	assert.Equal(t, "Correct!", right.Feedback)
	assert.Equal(t, 2, right.MaxScore)

	wrong := ScoreMCQ(q, "A")
	assert.Equal(t, 0, wrong.Score)
	assert.Equal(t, "Incorrect. The correct answer is B", wrong.Feedback)
	assert.Equal(t, "B", wrong.CorrectAnswer)

	assert.Equal(t, 0, ScoreMCQ(q, "").Score)
	assert.Equal(t, 0, ScoreMCQ(q, "b").Score, "match is exact")
}

func TestTheoryPoints(t *testing.T) {
	tests := []struct {
		score, max, want int
	}{
		{0, 4, 0},
		{10, 4, 4},
		{7, 4, 3},
		{5, 4, 2},
		{3, 4, 1},
		{8, 2, 2},
		{2, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TheoryPoints(tt.score, tt.max), "score %d of %d", tt.score, tt.max)
	}
}

func TestTotals(t *testing.T) {
	qs := []model.QuizQuestion{{Points: 2}, {Points: 2}, {Points: 2}, {Points: 4}, {Points: 4}}
	assert.Equal(t, 14, PossiblePoints(qs))
	assert.Equal(t, 9, TotalScore([]model.GradedAnswer{{Score: 2}, {Score: 0}, {Score: 4}, {Score: 3}}))
	assert.Equal(t, 64, Percentage(9, 14))
	assert.Equal(t, 0, Percentage(3, 0))
}
