package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/pkg/llm"
	"learning_companion_backend/pkg/logger"

	"go.uber.org/zap"
)

type GenerationErrorKind string

const (
	KindEmptyResponse   GenerationErrorKind = "empty_response"
	KindParseFailure    GenerationErrorKind = "parse_failure"
	KindInvalidShape    GenerationErrorKind = "invalid_shape"
	KindProviderFailure GenerationErrorKind = "provider_failure"
)

type GenerationError struct {
	Op   string
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationKind 判断 err 链上是否有指定类型的生成错误
func IsGenerationKind(err error, kind GenerationErrorKind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}

func classify(op string, err error) *GenerationError {
	var (
		empty     *llm.ErrEmptyResponse
		invalid   *llm.ErrInvalidResponse
		truncated *llm.ErrMaxTokensExceeded
	)
	kind := KindProviderFailure
	switch {
	case errors.As(err, &empty):
		kind = KindEmptyResponse
	case errors.As(err, &invalid):
		kind = KindParseFailure
		if invalid.Reason == llm.ReasonSchema {
			kind = KindInvalidShape
		}
	case errors.As(err, &truncated):
		// 被截断的 JSON 无法解析
		kind = KindParseFailure
	}
	return &GenerationError{Op: op, Kind: kind, Err: err}
}

// Grade 是单道主观题的评分，Score 为 0-10
type Grade struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	IdealAnswer string `json:"idealAnswer"`
}

const (
	gradeFallbackScore    = 5
	gradeFallbackFeedback = "Unable to process your answer at this time. Please try again."
	gradeFallbackIdeal    = "Answer evaluation temporarily unavailable."

	tutorFallbackAnswer = "Sorry, I could not process your question."
)

func fallbackGrade() Grade {
	return Grade{Score: gradeFallbackScore, Feedback: gradeFallbackFeedback, IdealAnswer: gradeFallbackIdeal}
}

type generationParams struct {
	temperature float64
	maxTokens   int
}

var (
	planParams  = generationParams{temperature: 0.7, maxTokens: 8192}
	quizParams  = generationParams{temperature: 0.6, maxTokens: 3000}
	gradeParams = generationParams{temperature: 0.3, maxTokens: 1500}
	tutorParams = generationParams{temperature: 0.7, maxTokens: 2500}
)

type GenerationService struct {
	mu       sync.RWMutex
	provider llm.Provider
}

func NewGenerationService(provider llm.Provider) *GenerationService {
	return &GenerationService{provider: provider}
}

// SetProvider 配置热更新时替换模型提供方，进行中的请求不受影响
func (s *GenerationService) SetProvider(provider llm.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

func (s *GenerationService) currentProvider() llm.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

func (s *GenerationService) request(system, prompt string, schema *llm.Schema, p generationParams) llm.Request {
	req := llm.UserPrompt(system, prompt)
	req.Schema = schema
	req.Temperature = p.temperature
	req.MaxTokens = p.maxTokens
	return req
}

// GeneratePlan 生成完整的多天学习计划
func (s *GenerationService) GeneratePlan(ctx context.Context, topic string, days int, level model.Level, dailyTime string) (*model.PlanData, error) {
	ctx = llm.WithPurpose(ctx, "plan")

	req := s.request(planSystemPrompt, buildPlanPrompt(topic, days, level, dailyTime), planSchema, planParams)
	resp, err := s.currentProvider().Generate(ctx, req)
	if err != nil {
		logger.Log.Error("Error generating learning plan", zap.String("topic", topic), zap.Error(err))
		return nil, classify("generate plan", err)
	}

	var plan model.PlanData
	if err := json.Unmarshal(resp.Content, &plan); err != nil {
		return nil, &GenerationError{Op: "generate plan", Kind: KindInvalidShape, Err: err}
	}

	normalizePlan(&plan, topic, days, level, dailyTime)
	return &plan, nil
}

// normalizePlan 以请求参数补齐模型遗漏的字段，并保证天数与子主题 ID 可用作进度键
func normalizePlan(plan *model.PlanData, topic string, days int, level model.Level, dailyTime string) {
	if strings.TrimSpace(plan.Topic) == "" {
		plan.Topic = topic
	}
	if lv, err := model.ParseLevel(string(plan.Level)); err == nil {
		plan.Level = lv
	} else {
		plan.Level = level
	}
	if strings.TrimSpace(plan.DailyTime) == "" {
		plan.DailyTime = dailyTime
	}
	if plan.TotalDays <= 0 {
		plan.TotalDays = days
	}

	seen := make(map[string]bool)
	for i := range plan.Days {
		d := &plan.Days[i]
		if d.Day <= 0 {
			d.Day = i + 1
		}
		for j := range d.Subtopics {
			st := &d.Subtopics[j]
			if st.ID == "" || seen[st.ID] {
				st.ID = fmt.Sprintf("day%d-%d", d.Day, j+1)
			}
			seen[st.ID] = true
		}
	}
}

type quizOutput struct {
	Questions []model.QuizQuestion `json:"questions"`
}

// GenerateQuiz 为某一天生成测验题，缺少 questions 时返回空切片
func (s *GenerationService) GenerateQuiz(ctx context.Context, topic string, day model.DayPlan, level model.Level) ([]model.QuizQuestion, error) {
	ctx = llm.WithPurpose(ctx, "quiz")

	req := s.request(quizSystemPrompt, buildQuizPrompt(topic, day, level), quizSchema, quizParams)
	resp, err := s.currentProvider().Generate(ctx, req)
	if err != nil {
		logger.Log.Error("Error generating quiz questions", zap.Int("day", day.Day), zap.Error(err))
		return nil, classify("generate quiz", err)
	}

	var out quizOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &GenerationError{Op: "generate quiz", Kind: KindInvalidShape, Err: err}
	}
	if out.Questions == nil {
		return []model.QuizQuestion{}, nil
	}

	seen := make(map[string]bool, len(out.Questions))
	for i := range out.Questions {
		q := &out.Questions[i]
		if q.ID == "" || seen[q.ID] {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		seen[q.ID] = true
	}
	return out.Questions, nil
}

type gradeOutput struct {
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	IdealAnswer string  `json:"idealAnswer"`
}

// GradeTheoryAnswer 评分主观题。内容无法解析时返回固定的兜底评分，模型调用失败和空响应仍返回错误。
func (s *GenerationService) GradeTheoryAnswer(ctx context.Context, question, answer, lessonContext string) (Grade, error) {
	ctx = llm.WithPurpose(ctx, "grade")

	req := s.request(gradeSystemPrompt, buildGradePrompt(question, answer, lessonContext), gradeSchema, gradeParams)
	resp, err := s.currentProvider().Generate(ctx, req)
	if err != nil {
		genErr := classify("grade answer", err)
		if genErr.Kind == KindParseFailure || genErr.Kind == KindInvalidShape {
			logger.Log.Warn("Failed to parse grading response, using fallback", zap.Error(err))
			return fallbackGrade(), nil
		}
		logger.Log.Error("Error grading theory answer", zap.Error(err))
		return Grade{}, genErr
	}

	var out gradeOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		logger.Log.Warn("Failed to decode grading response, using fallback", zap.Error(err))
		return fallbackGrade(), nil
	}

	return Grade{
		Score:       clampScore(out.Score),
		Feedback:    out.Feedback,
		IdealAnswer: out.IdealAnswer,
	}, nil
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(10, score))))
}

// AskTutor 返回 markdown 格式的回答
func (s *GenerationService) AskTutor(ctx context.Context, question, lessonContext, topic string) (string, error) {
	ctx = llm.WithPurpose(ctx, "tutor")

	req := s.request(tutorSystemPrompt, buildTutorPrompt(question, lessonContext, topic), nil, tutorParams)
	resp, err := s.currentProvider().Generate(ctx, req)
	if err != nil {
		var empty *llm.ErrEmptyResponse
		if errors.As(err, &empty) {
			return tutorFallbackAnswer, nil
		}
		logger.Log.Error("Error asking tutor question", zap.Error(err))
		return "", classify("ask tutor", err)
	}

	if answer := resp.Text(); strings.TrimSpace(answer) != "" {
		return answer, nil
	}
	return tutorFallbackAnswer, nil
}
