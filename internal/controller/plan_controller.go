package controller

import (
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/markdown"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	LearningService   *service.LearningService
	GenerationService *service.GenerationService
	now               func() time.Time
}

func NewPlanController(learningService *service.LearningService, generationService *service.GenerationService) *PlanController {
	return &PlanController{
		LearningService:   learningService,
		GenerationService: generationService,
		now:               time.Now,
	}
}

type CreatePlanRequest struct {
	Topic     string `json:"topic" binding:"required"`
	Days      int    `json:"days" binding:"required,min=1,max=90"`
	Level     string `json:"level" binding:"required"`
	DailyTime string `json:"daily_time" binding:"required"`
}

type PlanDetail struct {
	Plan       *model.LearningPlan `json:"plan"`
	CurrentDay int                 `json:"current_day"`
	Progress   float64             `json:"progress"`
}

type ProgressRequest struct {
	SubtopicID string `json:"subtopic_id" binding:"required"`
	Completed  bool   `json:"completed"`
}

type TutorRequest struct {
	SubtopicID string `json:"subtopic_id" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

type TutorResponse struct {
	Answer string           `json:"answer"`
	Blocks []markdown.Block `json:"blocks"`
}

// @Summary 生成学习计划
// @Description 调用模型生成多天学习计划并设为当前计划
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param plan body CreatePlanRequest true "计划参数"
// @Success 201 {object} util.Response{data=model.LearningPlan}
// @Router /api/plans [post]
func (c *PlanController) CreatePlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreatePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	data, err := c.GenerationService.GeneratePlan(ctx.Request.Context(), req.Topic, req.Days, level, req.DailyTime)
	if err != nil {
		respondError(ctx, err)
		return
	}

	plan, err := c.LearningService.CreatePlan(ctx.Request.Context(), user.UserID(), data)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, plan)
}

// @Summary 学习计划列表
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PlanSnapshot}
// @Router /api/plans [get]
func (c *PlanController) ListPlans(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.LearningService.Plans(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 刷新学习计划缓存
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PlanSnapshot}
// @Router /api/plans/refresh [post]
func (c *PlanController) RefreshPlans(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.LearningService.Refresh(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 学习计划详情
// @Description 返回计划内容以及按创建时间推算的当前天数
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=PlanDetail}
// @Router /api/plans/{id} [get]
func (c *PlanController) GetPlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	plan, err := c.LearningService.GetPlan(ctx.Request.Context(), user.UserID(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	now := c.now()
	util.Success(ctx, PlanDetail{
		Plan:       plan,
		CurrentDay: service.CurrentDay(plan, now),
		Progress:   service.ElapsedProgress(plan, now),
	})
}

// @Summary 获取某天的学习进度
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Success 200 {object} util.Response{data=[]model.DailyProgress}
// @Router /api/plans/{id}/days/{day}/progress [get]
func (c *PlanController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	planID, day, ok := planDayParams(ctx)
	if !ok {
		return
	}

	util.Success(ctx, c.LearningService.GetProgress(ctx.Request.Context(), user.UserID(), planID, day))
}

// @Summary 标记子主题完成状态
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Param progress body ProgressRequest true "子主题与完成状态"
// @Success 200 {object} util.Response{data=[]model.DailyProgress}
// @Router /api/plans/{id}/days/{day}/progress [put]
func (c *PlanController) UpdateProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	planID, day, ok := planDayParams(ctx)
	if !ok {
		return
	}

	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reqCtx := ctx.Request.Context()
	if err := c.LearningService.UpsertProgress(reqCtx, user.UserID(), planID, day, req.SubtopicID, req.Completed); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, c.LearningService.GetProgress(reqCtx, user.UserID(), planID, day))
}

// @Summary 向 AI 导师提问
// @Description 以子主题讲解为上下文回答问题，返回原始 markdown 及解析后的块
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "计划ID"
// @Param day path int true "第几天"
// @Param question body TutorRequest true "问题"
// @Success 200 {object} util.Response{data=TutorResponse}
// @Router /api/plans/{id}/days/{day}/tutor [post]
func (c *PlanController) AskTutor(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	planID, day, ok := planDayParams(ctx)
	if !ok {
		return
	}

	var req TutorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reqCtx := ctx.Request.Context()
	plan, err := c.LearningService.GetPlan(reqCtx, user.UserID(), planID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	data := plan.PlanData.Data()
	dayPlan, found := data.Day(day)
	if !found {
		respondError(ctx, util.ErrDayNotFound)
		return
	}
	subtopic, found := dayPlan.Subtopic(req.SubtopicID)
	if !found {
		respondError(ctx, util.ErrSubtopicNotFound)
		return
	}

	answer, err := c.GenerationService.AskTutor(reqCtx, req.Question, subtopic.Explanation, plan.Topic)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, TutorResponse{Answer: answer, Blocks: markdown.Render(answer)})
}
