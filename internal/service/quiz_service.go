package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/logger"
	"learning_companion_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type QuizState string

const (
	QuizLoading    QuizState = "loading"
	QuizInProgress QuizState = "in_progress"
	QuizSubmitting QuizState = "submitting"
	QuizCompleted  QuizState = "completed"
)

const (
	TriggerManual  = "manual"
	TriggerTimeout = "timeout"
)

type NavigateAction string

const (
	NavigateNext     NavigateAction = "next"
	NavigatePrevious NavigateAction = "previous"
	NavigateJump     NavigateAction = "jump"
)

const (
	// 已完成的会话保留一段时间供事件流读取，之后从内存移除
	completedSessionTTL = 10 * time.Minute
	forcedSubmitTimeout = 2 * time.Minute
)

type QuizKey struct {
	UserID string
	PlanID string
	Day    int
}

func (k QuizKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.UserID, k.PlanID, k.Day)
}

type QuizSession struct {
	mu sync.Mutex

	key       QuizKey
	state     QuizState
	topic     string
	dayTitle  string
	questions []model.QuizQuestion
	answers   []string
	current   int
	remaining int
	result    *model.QuizResult
	lastErr   string

	// 计时器只强制提交一次
	forced   bool
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *QuizSession) stopCountdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// QuizSnapshot 是会话对外的只读视图。未完成时不下发正确答案。
type QuizSnapshot struct {
	State            QuizState            `json:"state"`
	PlanID           string               `json:"plan_id"`
	Day              int                  `json:"day"`
	Topic            string               `json:"topic"`
	DayTitle         string               `json:"day_title"`
	Questions        []model.QuizQuestion `json:"questions"`
	Answers          []string             `json:"answers"`
	CurrentQuestion  int                  `json:"current_question"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	TotalPossible    int                  `json:"total_possible"`
	Result           *model.QuizResult    `json:"result,omitempty"`
	Percentage       int                  `json:"percentage"`
	Error            string               `json:"error,omitempty"`
}

// 调用方需持有 s.mu
func (s *QuizSession) snapshot() *QuizSnapshot {
	questions := make([]model.QuizQuestion, len(s.questions))
	copy(questions, s.questions)
	if s.state != QuizCompleted {
		for i := range questions {
			questions[i].CorrectAnswer = ""
		}
	}
	answers := make([]string, len(s.answers))
	copy(answers, s.answers)

	snap := &QuizSnapshot{
		State:            s.state,
		PlanID:           s.key.PlanID,
		Day:              s.key.Day,
		Topic:            s.topic,
		DayTitle:         s.dayTitle,
		Questions:        questions,
		Answers:          answers,
		CurrentQuestion:  s.current,
		RemainingSeconds: s.remaining,
		TotalPossible:    PossiblePoints(s.questions),
		Result:           s.result,
		Error:            s.lastErr,
	}
	if s.result != nil {
		snap.Percentage = Percentage(s.result.Score, snap.TotalPossible)
	}
	return snap
}

type QuizService struct {
	Learning  *LearningService
	Generator *GenerationService
	Events    *QuizEventHub
	Redis     *redis.Client

	cfg          config.QuizConfig
	gradeWorkers int

	mu       sync.Mutex
	sessions map[QuizKey]*QuizSession
}

func NewQuizService(learning *LearningService, generator *GenerationService, events *QuizEventHub, rdb *redis.Client, cfg config.QuizConfig, gradeWorkers int) *QuizService {
	if cfg.TimeLimitSeconds <= 0 {
		cfg.TimeLimitSeconds = util.DefaultQuizTimeLimit
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if gradeWorkers <= 0 {
		gradeWorkers = 1
	}
	if events == nil {
		events = NewQuizEventHub()
	}
	return &QuizService{
		Learning:     learning,
		Generator:    generator,
		Events:       events,
		Redis:        rdb,
		cfg:          cfg,
		gradeWorkers: gradeWorkers,
		sessions:     make(map[QuizKey]*QuizSession),
	}
}

func (s *QuizService) quizConfig() config.QuizConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig 配置热更新，只影响之后开始的测验
func (s *QuizService) SetConfig(cfg config.QuizConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.TimeLimitSeconds > 0 {
		s.cfg.TimeLimitSeconds = cfg.TimeLimitSeconds
	}
	if cfg.TickInterval > 0 {
		s.cfg.TickInterval = cfg.TickInterval
	}
	if cfg.QuestionCacheTTL > 0 {
		s.cfg.QuestionCacheTTL = cfg.QuestionCacheTTL
	}
}

func (s *QuizService) session(key QuizKey) (*QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	return sess, ok
}

func (s *QuizService) drop(key QuizKey, sess *QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[key]; ok && cur == sess {
		delete(s.sessions, key)
		monitoring.QuizActiveSessions.Dec()
	}
}

func (s *QuizService) publishState(sess *QuizSession, snap *QuizSnapshot) {
	s.Events.Publish(sess.key.String(), QuizEvent{Type: EventState, Data: snap})
}

// Start 开始某天的测验：已有结果直接完成，否则加载或生成题目并开始计时。重复调用返回现有会话。
func (s *QuizService) Start(ctx context.Context, key QuizKey) (*QuizSnapshot, error) {
	if sess, ok := s.session(key); ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.snapshot(), nil
	}

	plan, err := s.Learning.GetPlan(ctx, key.UserID, key.PlanID)
	if err != nil {
		return nil, err
	}
	planData := plan.PlanData.Data()
	dayData, ok := planData.Day(key.Day)
	if !ok {
		return nil, util.ErrDayNotFound
	}

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.snapshot(), nil
	}
	timeLimit := s.cfg.TimeLimitSeconds
	sess := &QuizSession{
		key:       key,
		state:     QuizLoading,
		topic:     plan.Topic,
		dayTitle:  dayData.Title,
		remaining: timeLimit,
		stop:      make(chan struct{}),
	}
	s.sessions[key] = sess
	monitoring.QuizActiveSessions.Inc()
	s.mu.Unlock()

	if existing := s.Learning.LatestQuizResult(ctx, key.UserID, key.PlanID, key.Day); existing != nil {
		sess.mu.Lock()
		sess.state = QuizCompleted
		sess.questions = existing.Questions
		sess.answers = answerTexts(existing.Answers)
		sess.result = existing
		sess.remaining = 0
		snap := sess.snapshot()
		sess.mu.Unlock()
		sess.stopCountdown()
		s.scheduleDrop(sess)
		return snap, nil
	}

	questions, err := s.loadQuestions(ctx, key, plan, dayData)
	if err != nil {
		s.drop(key, sess)
		return nil, err
	}

	sess.mu.Lock()
	sess.questions = questions
	sess.answers = make([]string, len(questions))
	sess.current = 0
	sess.state = QuizInProgress
	snap := sess.snapshot()
	sess.mu.Unlock()

	logger.Log.Info("Quiz started",
		zap.String("session", key.String()),
		zap.Int("questions", len(questions)),
		zap.Int("timeLimit", timeLimit))

	s.publishState(sess, snap)
	if len(questions) > 0 {
		go s.runCountdown(sess)
	}
	return snap, nil
}

func answerTexts(graded []model.GradedAnswer) []string {
	out := make([]string, len(graded))
	for i, a := range graded {
		out[i] = a.UserAnswer
	}
	return out
}

func questionCacheKey(key QuizKey) string {
	return "quiz:questions:" + key.String()
}

// loadQuestions 先读 Redis 缓存，未命中时调用模型生成
func (s *QuizService) loadQuestions(ctx context.Context, key QuizKey, plan *model.LearningPlan, day *model.DayPlan) ([]model.QuizQuestion, error) {
	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, questionCacheKey(key)).Bytes()
		if err == nil {
			var cached []model.QuizQuestion
			if err := json.Unmarshal(val, &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Quiz question cache read failed", zap.Error(err))
		}
	}

	questions, err := s.Generator.GenerateQuiz(ctx, plan.Topic, *day, plan.Level)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && len(questions) > 0 {
		if payload, err := json.Marshal(questions); err == nil {
			if err := s.Redis.Set(ctx, questionCacheKey(key), payload, s.quizConfig().QuestionCacheTTL).Err(); err != nil {
				logger.Log.Warn("Quiz question cache write failed", zap.Error(err))
			}
		}
	}
	return questions, nil
}

func (s *QuizService) runCountdown(sess *QuizSession) {
	ticker := time.NewTicker(s.quizConfig().TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			sess.mu.Lock()
			// 提交中暂停计时
			if sess.state != QuizInProgress {
				sess.mu.Unlock()
				continue
			}
			if sess.remaining <= 1 {
				sess.remaining = 0
				fire := !sess.forced
				sess.forced = true
				sess.mu.Unlock()

				s.Events.Publish(sess.key.String(), QuizEvent{Type: EventTick, Data: TickData{State: QuizInProgress}})
				if fire {
					logger.Log.Info("Quiz time is up, submitting", zap.String("session", sess.key.String()))
					ctx, cancel := context.WithTimeout(context.Background(), forcedSubmitTimeout)
					_, _ = s.submit(ctx, sess, TriggerTimeout)
					cancel()
				}
				return
			}
			sess.remaining--
			tick := TickData{State: sess.state, RemainingSeconds: sess.remaining}
			sess.mu.Unlock()
			s.Events.Publish(sess.key.String(), QuizEvent{Type: EventTick, Data: tick})
		}
	}
}

func (s *QuizService) Snapshot(ctx context.Context, key QuizKey) (*QuizSnapshot, error) {
	if sess, ok := s.session(key); ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.snapshot(), nil
	}

	// 会话已过期但结果已保存
	if result := s.Learning.LatestQuizResult(ctx, key.UserID, key.PlanID, key.Day); result != nil {
		done := &QuizSession{
			key:       key,
			state:     QuizCompleted,
			questions: result.Questions,
			answers:   answerTexts(result.Answers),
			result:    result,
		}
		return done.snapshot(), nil
	}
	return nil, util.ErrQuizNotStarted
}

// Answer 设置当前题目的答案
func (s *QuizService) Answer(ctx context.Context, key QuizKey, answer string) (*QuizSnapshot, error) {
	sess, ok := s.session(key)
	if !ok {
		return nil, util.ErrQuizNotStarted
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != QuizInProgress {
		return nil, util.ErrQuizNotInProgress
	}
	if sess.current >= len(sess.answers) {
		return nil, util.ErrQuestionNotFound
	}
	sess.answers[sess.current] = answer
	return sess.snapshot(), nil
}

// Navigate 在题目间移动，越界的 next/previous 保持不动，不清除任何答案
func (s *QuizService) Navigate(ctx context.Context, key QuizKey, action NavigateAction, index int) (*QuizSnapshot, error) {
	sess, ok := s.session(key)
	if !ok {
		return nil, util.ErrQuizNotStarted
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != QuizInProgress {
		return nil, util.ErrQuizNotInProgress
	}

	switch action {
	case NavigateNext:
		if sess.current < len(sess.questions)-1 {
			sess.current++
		}
	case NavigatePrevious:
		if sess.current > 0 {
			sess.current--
		}
	case NavigateJump:
		if index < 0 || index >= len(sess.questions) {
			return nil, util.ErrQuestionNotFound
		}
		sess.current = index
	default:
		return nil, fmt.Errorf("%w: unknown action %q", util.ErrInvalidInput, action)
	}
	return sess.snapshot(), nil
}

func (s *QuizService) Submit(ctx context.Context, key QuizKey) (*QuizSnapshot, error) {
	sess, ok := s.session(key)
	if !ok {
		return nil, util.ErrQuizNotStarted
	}
	return s.submit(ctx, sess, TriggerManual)
}

// submit 评分并保存。失败时回到 in_progress，答案保留，不自动重试。
func (s *QuizService) submit(ctx context.Context, sess *QuizSession, trigger string) (*QuizSnapshot, error) {
	sess.mu.Lock()
	switch sess.state {
	case QuizCompleted:
		sess.mu.Unlock()
		return nil, util.ErrQuizAlreadyComplete
	case QuizInProgress:
	default:
		sess.mu.Unlock()
		return nil, util.ErrQuizNotInProgress
	}
	sess.state = QuizSubmitting
	sess.lastErr = ""
	questions := sess.questions
	answers := make([]string, len(sess.answers))
	copy(answers, sess.answers)
	dayTitle := sess.dayTitle
	snap := sess.snapshot()
	sess.mu.Unlock()
	s.publishState(sess, snap)

	graded, err := s.grade(ctx, questions, answers, dayTitle)
	var result *model.QuizResult
	if err == nil {
		result, err = s.Learning.SaveQuizResult(ctx, sess.key.UserID, sess.key.PlanID, sess.key.Day, questions, graded, TotalScore(graded))
	}

	sess.mu.Lock()
	if err != nil {
		sess.state = QuizInProgress
		sess.lastErr = "Failed to submit quiz"
		snap = sess.snapshot()
		sess.mu.Unlock()

		monitoring.QuizSubmissions.WithLabelValues(trigger, "failed").Inc()
		logger.Log.Error("Quiz submission failed",
			zap.String("session", sess.key.String()),
			zap.String("trigger", trigger),
			zap.Error(err))
		s.publishState(sess, snap)
		return snap, err
	}

	sess.state = QuizCompleted
	sess.result = result
	snap = sess.snapshot()
	sess.mu.Unlock()
	sess.stopCountdown()

	monitoring.QuizSubmissions.WithLabelValues(trigger, "success").Inc()
	logger.Log.Info("Quiz submitted",
		zap.String("session", sess.key.String()),
		zap.String("trigger", trigger),
		zap.Int("score", result.Score),
		zap.Int("possible", snap.TotalPossible))
	s.publishState(sess, snap)
	s.scheduleDrop(sess)
	return snap, nil
}

// grade 选择题本地判分，主观题并发交给模型，结果按题目顺序排列
func (s *QuizService) grade(ctx context.Context, questions []model.QuizQuestion, answers []string, dayTitle string) ([]model.GradedAnswer, error) {
	graded := make([]model.GradedAnswer, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.gradeWorkers)
	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		if q.Type == model.QuestionMCQ {
			graded[i] = ScoreMCQ(q, answer)
			continue
		}
		g.Go(func() error {
			grade, err := s.Generator.GradeTheoryAnswer(gctx, q.Question, answer, dayTitle)
			if err != nil {
				return fmt.Errorf("grade question %s: %w", q.ID, err)
			}
			graded[i] = ScoreTheory(q, answer, grade)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graded, nil
}

func (s *QuizService) scheduleDrop(sess *QuizSession) {
	time.AfterFunc(completedSessionTTL, func() { s.drop(sess.key, sess) })
}

// Stop 停止所有计时器，用于进程退出
func (s *QuizService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.stopCountdown()
	}
}

// InitialEvent 是 websocket 订阅后首先推送的当前快照
func (s *QuizService) InitialEvent(ctx context.Context, key QuizKey) (*QuizEvent, error) {
	snap, err := s.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return &QuizEvent{Type: EventState, Data: snap}, nil
}
