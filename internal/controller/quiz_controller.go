package controller

import (
	"errors"
	"net/http"

	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService     *service.QuizService
	LearningService *service.LearningService
}

func NewQuizController(quizService *service.QuizService, learningService *service.LearningService) *QuizController {
	return &QuizController{QuizService: quizService, LearningService: learningService}
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type NavigateRequest struct {
	Action service.NavigateAction `json:"action" binding:"required"`
	Index  int                    `json:"index"`
}

func (c *QuizController) quizKey(ctx *gin.Context) (service.QuizKey, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return service.QuizKey{}, false
	}
	planID, day, ok := planDayParams(ctx)
	if !ok {
		return service.QuizKey{}, false
	}
	return service.QuizKey{UserID: user.UserID(), PlanID: planID, Day: day}, true
}

// @Summary 开始测验
// @Description 已有成绩时直接返回完成状态，否则生成题目并开始倒计时
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Success 200 {object} util.Response{data=service.QuizSnapshot}
// @Router /api/quiz/{id}/days/{day}/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	snap, err := c.QuizService.Start(ctx.Request.Context(), key)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 测验状态
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Success 200 {object} util.Response{data=service.QuizSnapshot}
// @Router /api/quiz/{id}/days/{day} [get]
func (c *QuizController) Snapshot(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	snap, err := c.QuizService.Snapshot(ctx.Request.Context(), key)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 作答当前题目
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Param answer body AnswerRequest true "答案"
// @Success 200 {object} util.Response{data=service.QuizSnapshot}
// @Router /api/quiz/{id}/days/{day}/answer [put]
func (c *QuizController) Answer(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	snap, err := c.QuizService.Answer(ctx.Request.Context(), key, req.Answer)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 切换题目
// @Description action 为 next、previous 或 jump，jump 时使用 index
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Param navigate body NavigateRequest true "导航"
// @Success 200 {object} util.Response{data=service.QuizSnapshot}
// @Router /api/quiz/{id}/days/{day}/navigate [post]
func (c *QuizController) Navigate(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	snap, err := c.QuizService.Navigate(ctx.Request.Context(), key, req.Action, req.Index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 提交测验
// @Description 失败时保留答案并回到作答状态，可再次提交
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Success 200 {object} util.Response{data=service.QuizSnapshot}
// @Failure 502 {object} util.Response{data=service.QuizSnapshot}
// @Router /api/quiz/{id}/days/{day}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	snap, err := c.QuizService.Submit(ctx.Request.Context(), key)
	if err != nil {
		if snap != nil {
			ctx.JSON(http.StatusBadGateway, util.Response{
				Code:    http.StatusBadGateway,
				Message: snap.Error,
				Data:    snap,
			})
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 测验事件流
// @Description WebSocket推送倒计时与状态变化，浏览器可用 token 查询参数认证
// @Tags 测验
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Param token query string false "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/quiz/{id}/days/{day}/events [get]
func (c *QuizController) Events(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	// 测验尚未开始时也允许订阅，开始后会收到状态事件
	initial, err := c.QuizService.InitialEvent(ctx.Request.Context(), key)
	if err != nil && !errors.Is(err, util.ErrQuizNotStarted) {
		respondError(ctx, err)
		return
	}
	c.QuizService.Events.ServeWs(ctx.Writer, ctx.Request, key.String(), initial)
}

// @Summary 最近一次测验成绩
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Success 200 {object} util.Response{data=model.QuizResult}
// @Router /api/quiz/{id}/days/{day}/result [get]
func (c *QuizController) Result(ctx *gin.Context) {
	key, ok := c.quizKey(ctx)
	if !ok {
		return
	}
	result := c.LearningService.LatestQuizResult(ctx.Request.Context(), key.UserID, key.PlanID, key.Day)
	if result == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, result)
}
