package controller

import (
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/markdown"

	"github.com/gin-gonic/gin"
)

type MarkdownController struct{}

func NewMarkdownController() *MarkdownController {
	return &MarkdownController{}
}

type RenderRequest struct {
	Text string `json:"text"`
	HTML bool   `json:"html"`
}

type RenderResponse struct {
	Blocks []markdown.Block `json:"blocks"`
	HTML   string           `json:"html,omitempty"`
}

// @Summary 渲染 markdown
// @Description 把模型输出的 markdown 解析为展示块，可选输出转义后的 HTML
// @Tags 工具
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param render body RenderRequest true "markdown 文本"
// @Success 200 {object} util.Response{data=RenderResponse}
// @Router /api/markdown/render [post]
func (c *MarkdownController) Render(ctx *gin.Context) {
	var req RenderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp := RenderResponse{Blocks: markdown.Render(req.Text)}
	if resp.Blocks == nil {
		resp.Blocks = []markdown.Block{}
	}
	if req.HTML {
		html, err := markdown.RenderHTML(resp.Blocks)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp.HTML = html
	}
	util.Success(ctx, resp)
}
