package service

import (
	"context"
	"errors"
	"testing"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = `{
  "topic": "Go",
  "totalDays": 2,
  "level": "Beginner",
  "dailyTime": "30 minutes",
  "days": [
    {"day": 1, "title": "Basics", "subtopics": [
      {"id": "s1", "title": "Syntax", "explanation": "Go syntax.", "keyPoints": ["a"], "estimatedTime": "15 minutes"},
      {"id": "s1", "title": "Types", "explanation": "Go types.", "keyPoints": ["b"], "estimatedTime": "15 minutes"}
    ], "objectives": ["write hello world"]},
    {"title": "Concurrency", "subtopics": [
      {"title": "Goroutines", "explanation": "go f()"}
    ]}
  ]
}`

func TestGeneratePlan(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: "```json\n" + planJSON + "\n```"})
	svc := NewGenerationService(mock)

	plan, err := svc.GeneratePlan(context.Background(), "Go", 2, model.LevelBeginner, "30 minutes")
	require.NoError(t, err)

	assert.Equal(t, "Go", plan.Topic)
	assert.Equal(t, model.LevelBeginner, plan.Level)
	require.Len(t, plan.Days, 2)
	assert.Equal(t, 2, plan.Days[1].Day)
	assert.Equal(t, "s1", plan.Days[0].Subtopics[0].ID)
	assert.Equal(t, "day1-2", plan.Days[0].Subtopics[1].ID, "duplicate ids are replaced")
	assert.Equal(t, "day2-1", plan.Days[1].Subtopics[0].ID, "missing ids are filled")

	req := mock.Requests()[0]
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 8192, req.MaxTokens)
	require.NotNil(t, req.Schema)
	assert.Contains(t, req.Messages[0].Content, `2-day learning plan for "Go" at beginner level`)
}

func TestGeneratePlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
		kind GenerationErrorKind
	}{
		{"empty", llm.MockResponse{Content: "  "}, KindEmptyResponse},
		{"not json", llm.MockResponse{Content: "here is your plan"}, KindParseFailure},
		{"wrong shape", llm.MockResponse{Content: `{"days": "soon"}`}, KindInvalidShape},
		{"provider down", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("dial tcp")}}, KindProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGenerationService(llm.NewMockProvider(tt.resp))
			_, err := svc.GeneratePlan(context.Background(), "Go", 2, model.LevelBeginner, "30 minutes")
			require.Error(t, err)
			assert.True(t, IsGenerationKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestGenerateQuiz(t *testing.T) {
	day := model.DayPlan{Day: 3, Title: "Channels", Subtopics: []model.Subtopic{{Title: "Buffered"}, {Title: "Select"}}}

	t.Run("questions", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: `{"questions":[
			{"id":"q1","type":"mcq","question":"?","options":["A) x","B) y"],"correctAnswer":"A","points":2},
			{"id":"q1","type":"theory","question":"Why?","points":4}
		]}`})
		qs, err := NewGenerationService(mock).GenerateQuiz(context.Background(), "Go", day, model.LevelAdvanced)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Equal(t, model.QuestionTheory, qs[1].Type)
		assert.Equal(t, "q2", qs[1].ID)

		req := mock.Requests()[0]
		assert.Equal(t, 0.6, req.Temperature)
		assert.Equal(t, 3000, req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "Subtopics: Buffered, Select")
		assert.Contains(t, req.Messages[0].Content, "Day 3")
	})

	t.Run("missing questions is empty", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: `{}`})
		qs, err := NewGenerationService(mock).GenerateQuiz(context.Background(), "Go", day, model.LevelAdvanced)
		require.NoError(t, err)
		assert.NotNil(t, qs)
		assert.Empty(t, qs)
	})

	t.Run("unknown type", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: `{"questions":[{"id":"q1","type":"essay","question":"?","points":1}]}`})
		_, err := NewGenerationService(mock).GenerateQuiz(context.Background(), "Go", day, model.LevelAdvanced)
		assert.True(t, IsGenerationKind(err, KindInvalidShape))
	})
}

func TestGradeTheoryAnswer(t *testing.T) {
	t.Run("graded", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: `{"score": 7.4, "feedback": "Good", "idealAnswer": "Ideal"}`})
		g, err := NewGenerationService(mock).GradeTheoryAnswer(context.Background(), "Q", "A", "Day title")
		require.NoError(t, err)
		assert.Equal(t, Grade{Score: 7, Feedback: "Good", IdealAnswer: "Ideal"}, g)

		req := mock.Requests()[0]
		assert.Equal(t, 0.3, req.Temperature)
		assert.Equal(t, 1500, req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "Context: Day title")
	})

	t.Run("clamped", func(t *testing.T) {
		mock := llm.NewMockProvider(
			llm.MockResponse{Content: `{"score": 14, "feedback": "?"}`},
			llm.MockResponse{Content: `{"score": -3, "feedback": "?"}`},
		)
		svc := NewGenerationService(mock)
		g, err := svc.GradeTheoryAnswer(context.Background(), "Q", "A", "C")
		require.NoError(t, err)
		assert.Equal(t, 10, g.Score)
		g, err = svc.GradeTheoryAnswer(context.Background(), "Q", "A", "C")
		require.NoError(t, err)
		assert.Equal(t, 0, g.Score)
	})

	t.Run("unparseable falls back", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: "I think it deserves a 7"})
		g, err := NewGenerationService(mock).GradeTheoryAnswer(context.Background(), "Q", "A", "C")
		require.NoError(t, err)
		assert.Equal(t, fallbackGrade(), g)
		assert.Equal(t, 5, g.Score)
	})

	t.Run("provider failure still fails", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
		_, err := NewGenerationService(mock).GradeTheoryAnswer(context.Background(), "Q", "A", "C")
		assert.True(t, IsGenerationKind(err, KindProviderFailure))
	})

	t.Run("empty still fails", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: ""})
		_, err := NewGenerationService(mock).GradeTheoryAnswer(context.Background(), "Q", "A", "C")
		assert.True(t, IsGenerationKind(err, KindEmptyResponse))
	})
}

func TestAskTutor(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: "## Answer\nUse `go test`."},
		llm.MockResponse{Content: ""},
	)
	svc := NewGenerationService(mock)

	answer, err := svc.AskTutor(context.Background(), "How do I test?", "Testing explanation", "Go")
	require.NoError(t, err)
	assert.Equal(t, "## Answer\nUse `go test`.", answer)

	req := mock.Requests()[0]
	assert.Nil(t, req.Schema)
	assert.Equal(t, 2500, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "Current lesson context: Testing explanation")

	answer, err = svc.AskTutor(context.Background(), "?", "", "Go")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I could not process your question.", answer)
}
