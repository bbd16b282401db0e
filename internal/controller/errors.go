package controller

import (
	"errors"
	"net/http"

	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/llm"
	"learning_companion_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var generationMessages = map[string]string{
	"generate plan": "Failed to generate learning plan",
	"generate quiz": "Failed to generate quiz questions",
	"grade answer":  "Failed to grade answer",
	"ask tutor":     "Failed to get tutor response",
}

// respondError 将服务层错误映射为统一响应
func respondError(ctx *gin.Context, err error) {
	var (
		genErr  *service.GenerationError
		rateErr *llm.ErrRateLimit
	)
	switch {
	case errors.Is(err, util.ErrPlanNotFound),
		errors.Is(err, util.ErrDayNotFound),
		errors.Is(err, util.ErrSubtopicNotFound),
		errors.Is(err, util.ErrProfileNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrQuizNotStarted):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrInvalidInput):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotInProgress), errors.Is(err, util.ErrQuizAlreadyComplete):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &rateErr):
		util.Error(ctx, http.StatusTooManyRequests, "AI service is busy, please try again later")
	case errors.As(err, &genErr):
		logger.Log.Warn("Generation failed",
			zap.String("op", genErr.Op),
			zap.String("kind", string(genErr.Kind)),
			zap.Error(genErr.Err))
		msg, ok := generationMessages[genErr.Op]
		if !ok {
			msg = "AI generation failed"
		}
		util.Error(ctx, http.StatusBadGateway, msg)
	case errors.Is(err, util.ErrStoreUnavailable):
		logger.Log.Error("Store unavailable", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Learning data store unavailable")
	default:
		util.LogInternalError(ctx, err)
	}
}

// planDayParams 解析 :id 与 :day
func planDayParams(ctx *gin.Context) (string, int, bool) {
	planID := ctx.Param("id")
	day, err := util.ParseDay(ctx.Param("day"))
	if planID == "" || err != nil {
		util.BadRequest(ctx, "Invalid plan or day")
		return "", 0, false
	}
	return planID, day, true
}
