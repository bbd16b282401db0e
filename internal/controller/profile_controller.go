package controller

import (
	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	ProfileService *service.ProfileService
}

func NewProfileController(profileService *service.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

// @Summary 获取个人资料
// @Tags 个人资料
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Profile}
// @Router /api/profile [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.ProfileService.Get(ctx.Request.Context(), user)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// @Summary 更新个人资料
// @Tags 个人资料
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param profile body service.UpdateProfileRequest true "可修改的字段"
// @Success 200 {object} util.Response{data=model.Profile}
// @Router /api/profile [put]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.ProfileService.Update(ctx.Request.Context(), user, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// @Summary 学习统计
// @Description 计划数、完成测验数、平均得分与预计学习时长（分钟）
// @Tags 个人资料
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProfileStats}
// @Router /api/profile/stats [get]
func (c *ProfileController) GetStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.ProfileService.Stats(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
