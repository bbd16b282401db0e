package util

import "errors"

var (
	ErrPlanNotFound        = errors.New("learning plan not found")
	ErrDayNotFound         = errors.New("day not found in plan")
	ErrSubtopicNotFound    = errors.New("subtopic not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrQuizNotStarted      = errors.New("quiz not started")
	ErrQuizNotInProgress   = errors.New("quiz is not in progress")
	ErrQuizAlreadyComplete = errors.New("quiz already completed")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSpeechUnavailable   = errors.New("speech synthesis unavailable")
)

// ErrStoreUnavailable 数据库不可用或返回了无法归类的错误
var ErrStoreUnavailable = errors.New("learning data store unavailable")
