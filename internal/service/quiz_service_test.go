package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fiveQuestionQuiz = `{"questions":[
  {"id":"q1","type":"mcq","question":"One?","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"A","points":2},
  {"id":"q2","type":"mcq","question":"Two?","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"B","points":2},
  {"id":"q3","type":"mcq","question":"Three?","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"C","points":2},
  {"id":"q4","type":"theory","question":"Explain four.","points":4},
  {"id":"q5","type":"theory","question":"Explain five.","points":4}
]}`

const twoQuestionQuiz = `{"questions":[
  {"id":"q1","type":"mcq","question":"One?","options":["A) a","B) b"],"correctAnswer":"A","points":2},
  {"id":"q2","type":"theory","question":"Explain.","points":4}
]}`

const mcqOnlyQuiz = `{"questions":[
  {"id":"q1","type":"mcq","question":"One?","options":["A) a","B) b"],"correctAnswer":"A","points":2}
]}`

type quizFixture struct {
	learning *LearningService
	mock     *llm.MockProvider
	quiz     *QuizService
	key      QuizKey
}

func newQuizFixture(t *testing.T, cfg config.QuizConfig, responses ...llm.MockResponse) *quizFixture {
	t.Helper()
	learning := newTestLearningService(t, newTestDB(t), &fakeClock{t: epoch})
	plan, err := learning.CreatePlan(context.Background(), "u1", samplePlanData("Go", 3))
	require.NoError(t, err)

	mock := llm.NewMockProvider(responses...)
	quiz := NewQuizService(learning, NewGenerationService(mock), nil, nil, cfg, 2)
	t.Cleanup(quiz.Stop)

	return &quizFixture{
		learning: learning,
		mock:     mock,
		quiz:     quiz,
		key:      QuizKey{UserID: "u1", PlanID: plan.ID, Day: 2},
	}
}

var slowTicks = config.QuizConfig{TimeLimitSeconds: 1800, TickInterval: time.Hour}

func TestQuizService_FullFlow(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, slowTicks,
		llm.MockResponse{Content: fiveQuestionQuiz},
		llm.MockResponse{Content: `{"score": 5, "feedback": "ok", "idealAnswer": "ideal"}`},
		llm.MockResponse{Content: `{"score": 5, "feedback": "ok", "idealAnswer": "ideal"}`},
	)

	snap, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizInProgress, snap.State)
	require.Len(t, snap.Questions, 5)
	assert.Equal(t, "Day 2 title", snap.DayTitle)
	assert.Equal(t, 1800, snap.RemainingSeconds)
	assert.Equal(t, 14, snap.TotalPossible)
	for _, q := range snap.Questions {
		assert.Empty(t, q.CorrectAnswer, "answers are hidden until completion")
	}

	for i, answer := range []string{"A", "B", "C", "theory four", "theory five"} {
		_, err := f.quiz.Navigate(ctx, f.key, NavigateJump, i)
		require.NoError(t, err)
		_, err = f.quiz.Answer(ctx, f.key, answer)
		require.NoError(t, err)
	}

	done, err := f.quiz.Submit(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizCompleted, done.State)
	require.NotNil(t, done.Result)
	assert.Equal(t, 10, done.Result.Score)
	assert.Equal(t, 5, done.Result.TotalQuestions)
	assert.Equal(t, 71, done.Percentage)
	assert.Equal(t, "A", done.Questions[0].CorrectAnswer)

	require.Len(t, done.Result.Answers, 5)
	assert.Equal(t, "q4", done.Result.Answers[3].QuestionID)
	assert.Equal(t, 2, done.Result.Answers[3].Score)
	assert.Equal(t, "ideal", done.Result.Answers[4].IdealAnswer)

	grades := f.mock.Requests()[1:]
	require.Len(t, grades, 2)
	for _, req := range grades {
		assert.Contains(t, req.Messages[0].Content, "Context: Day 2 title")
	}

	stored := f.learning.LatestQuizResult(ctx, "u1", f.key.PlanID, 2)
	require.NotNil(t, stored)
	assert.Equal(t, 10, stored.Score)

	_, err = f.quiz.Submit(ctx, f.key)
	assert.ErrorIs(t, err, util.ErrQuizAlreadyComplete)
	_, err = f.quiz.Answer(ctx, f.key, "late")
	assert.ErrorIs(t, err, util.ErrQuizNotInProgress)

	// 新实例（如重启后）直接读取已有结果，不再生成题目
	fresh := NewQuizService(f.learning, NewGenerationService(f.mock), nil, nil, slowTicks, 2)
	again, err := fresh.Start(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizCompleted, again.State)
	assert.Equal(t, 10, again.Result.Score)
	assert.Equal(t, "theory five", again.Answers[4])
	assert.Equal(t, 3, f.mock.CallCount())
}

func TestQuizService_MixedGrades(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, slowTicks,
		llm.MockResponse{Content: fiveQuestionQuiz},
		llm.MockResponse{Content: `{"score": 10, "feedback": "great", "idealAnswer": "ideal"}`},
		llm.MockResponse{Content: `{"score": 5, "feedback": "ok", "idealAnswer": "ideal"}`},
	)

	_, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	for i, answer := range []string{"A", "B", "D", "theory four", "theory five"} {
		_, err := f.quiz.Navigate(ctx, f.key, NavigateJump, i)
		require.NoError(t, err)
		_, err = f.quiz.Answer(ctx, f.key, answer)
		require.NoError(t, err)
	}

	done, err := f.quiz.Submit(ctx, f.key)
	require.NoError(t, err)
	require.NotNil(t, done.Result)
	assert.Equal(t, 10, done.Result.Score)
	assert.Equal(t, 5, done.Result.TotalQuestions)
	assert.Equal(t, 71, done.Percentage)

	require.Len(t, done.Result.Answers, 5)
	wrong := done.Result.Answers[2]
	assert.Equal(t, 0, wrong.Score)
	assert.Equal(t, "Incorrect. The correct answer is C", wrong.Feedback)

	// 理论题并行评分，两份评分结果的分配顺序不固定
	theory := []int{done.Result.Answers[3].Score, done.Result.Answers[4].Score}
	assert.ElementsMatch(t, []int{4, 2}, theory)
}

func TestQuizService_NavigationBounds(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, slowTicks, llm.MockResponse{Content: twoQuestionQuiz})

	_, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)

	snap, err := f.quiz.Navigate(ctx, f.key, NavigatePrevious, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CurrentQuestion)

	_, err = f.quiz.Answer(ctx, f.key, "B")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		snap, err = f.quiz.Navigate(ctx, f.key, NavigateNext, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, snap.CurrentQuestion)
	assert.Equal(t, []string{"B", ""}, snap.Answers)

	_, err = f.quiz.Navigate(ctx, f.key, NavigateJump, 2)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	_, err = f.quiz.Navigate(ctx, f.key, NavigateJump, -1)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	_, err = f.quiz.Navigate(ctx, f.key, "sideways", 0)
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	snap, err = f.quiz.Navigate(ctx, f.key, NavigatePrevious, 0)
	require.NoError(t, err)
	assert.Equal(t, "B", snap.Answers[0])
}

func TestQuizService_StartErrors(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, slowTicks,
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("boom")}},
		llm.MockResponse{Content: mcqOnlyQuiz},
	)

	_, err := f.quiz.Start(ctx, QuizKey{UserID: "u1", PlanID: "missing", Day: 1})
	assert.ErrorIs(t, err, util.ErrPlanNotFound)

	_, err = f.quiz.Start(ctx, QuizKey{UserID: "u1", PlanID: f.key.PlanID, Day: 4})
	assert.ErrorIs(t, err, util.ErrDayNotFound)

	_, err = f.quiz.Start(ctx, QuizKey{UserID: "stranger", PlanID: f.key.PlanID, Day: 1})
	assert.ErrorIs(t, err, util.ErrPlanNotFound)

	_, err = f.quiz.Start(ctx, f.key)
	assert.True(t, IsGenerationKind(err, KindProviderFailure))
	_, err = f.quiz.Snapshot(ctx, f.key)
	assert.ErrorIs(t, err, util.ErrQuizNotStarted, "failed start leaves no session")

	snap, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizInProgress, snap.State)

	again, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, snap.Questions, again.Questions)
	assert.Equal(t, 2, f.mock.CallCount())
}

func TestQuizService_SubmitFailureKeepsAnswers(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, slowTicks,
		llm.MockResponse{Content: twoQuestionQuiz},
		llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}},
	)

	_, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	_, err = f.quiz.Answer(ctx, f.key, "A")
	require.NoError(t, err)
	_, err = f.quiz.Navigate(ctx, f.key, NavigateNext, 0)
	require.NoError(t, err)
	_, err = f.quiz.Answer(ctx, f.key, "Because.")
	require.NoError(t, err)

	snap, err := f.quiz.Submit(ctx, f.key)
	require.Error(t, err)
	assert.Equal(t, QuizInProgress, snap.State)
	assert.Equal(t, []string{"A", "Because."}, snap.Answers)
	assert.NotEmpty(t, snap.Error)
	assert.Nil(t, f.learning.LatestQuizResult(ctx, "u1", f.key.PlanID, 2))

	f.mock.AddResponse(llm.MockResponse{Content: `{"score": 10, "feedback": "great"}`})
	snap, err = f.quiz.Submit(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizCompleted, snap.State)
	assert.Equal(t, 6, snap.Result.Score)
	assert.Empty(t, snap.Error)
}

func TestQuizService_TimerForcesSubmit(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, config.QuizConfig{TimeLimitSeconds: 3, TickInterval: time.Millisecond},
		llm.MockResponse{Content: mcqOnlyQuiz},
	)

	_, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	_, err = f.quiz.Answer(ctx, f.key, "A")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		snap, err := f.quiz.Snapshot(ctx, f.key)
		return err == nil && snap.State == QuizCompleted
	}, 2*time.Second, 5*time.Millisecond)

	snap, err := f.quiz.Snapshot(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.RemainingSeconds)
	assert.Equal(t, 2, snap.Result.Score)
}

func TestQuizService_TimerSubmitsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, config.QuizConfig{TimeLimitSeconds: 2, TickInterval: time.Millisecond},
		llm.MockResponse{Content: twoQuestionQuiz},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)

	_, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		snap, err := f.quiz.Snapshot(ctx, f.key)
		return err == nil && snap.State == QuizInProgress && snap.Error != "" && snap.RemainingSeconds == 0
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, f.mock.CallCount(), "the countdown does not retry")

	f.mock.AddResponse(llm.MockResponse{Content: `{"score": 0, "feedback": "empty"}`})
	snap, err := f.quiz.Submit(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizCompleted, snap.State)
	assert.Equal(t, 0, snap.Result.Score)
}

func TestQuizService_EmptyQuizHasNoCountdown(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, config.QuizConfig{TimeLimitSeconds: 1, TickInterval: time.Millisecond},
		llm.MockResponse{Content: `{"questions": []}`},
	)

	snap, err := f.quiz.Start(ctx, f.key)
	require.NoError(t, err)
	assert.Empty(t, snap.Questions)

	time.Sleep(20 * time.Millisecond)
	snap, err = f.quiz.Snapshot(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, QuizInProgress, snap.State)
	assert.Equal(t, 1, snap.RemainingSeconds)

	_, err = f.quiz.Answer(ctx, f.key, "x")
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	snap, err = f.quiz.Submit(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Result.Score)
	assert.Equal(t, 0, snap.Result.TotalQuestions)
}

func TestQuizSnapshotHidesAnswersUntilCompleted(t *testing.T) {
	sess := &QuizSession{
		state:     QuizInProgress,
		questions: []model.QuizQuestion{{ID: "q1", Type: model.QuestionMCQ, CorrectAnswer: "C", Points: 2}},
		answers:   []string{""},
	}
	assert.Empty(t, sess.snapshot().Questions[0].CorrectAnswer)
	assert.Equal(t, "C", sess.questions[0].CorrectAnswer, "session keeps the answer key")

	sess.state = QuizCompleted
	assert.Equal(t, "C", sess.snapshot().Questions[0].CorrectAnswer)
}
