package controller

import (
	"net/http"

	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/speech"

	"github.com/gin-gonic/gin"
)

type SpeechController struct {
	SpeechService *service.SpeechService
}

func NewSpeechController(speechService *service.SpeechService) *SpeechController {
	return &SpeechController{SpeechService: speechService}
}

type SpeechRequest struct {
	Text    string                  `json:"text"`
	Engine  string                  `json:"engine"`
	VoiceID string                  `json:"voice_id"`
	Voices  []speech.Voice          `json:"voices"`
	Options speech.UtteranceOptions `json:"options"`
}

type SpeechResponse struct {
	service.SpeechResult
	Utterance *speech.Utterance `json:"utterance,omitempty"`
}

type VoiceRequest struct {
	Voices []speech.Voice `json:"voices"`
}

type VoiceResponse struct {
	Voice *speech.Voice `json:"voice"`
}

// @Summary 朗读文本
// @Description engine=platform 返回客户端语音引擎参数，engine=elevenlabs 返回合成音频地址。失败时 available 为 false。
// @Tags 语音
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param speech body SpeechRequest true "朗读内容"
// @Success 200 {object} util.Response{data=SpeechResponse}
// @Router /api/speech [post]
func (c *SpeechController) Speak(ctx *gin.Context) {
	var req SpeechRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	switch req.Engine {
	case service.EngineElevenLabs:
		result := c.SpeechService.Synthesize(ctx.Request.Context(), req.Text, req.VoiceID)
		util.Success(ctx, SpeechResponse{SpeechResult: result})
	case "", service.EnginePlatform:
		resp := SpeechResponse{SpeechResult: service.SpeechResult{Engine: service.EnginePlatform}}
		if u, ok := c.SpeechService.PlatformUtterance(req.Text, req.Voices, req.Options); ok {
			resp.Available = true
			resp.Utterance = &u
		}
		util.Success(ctx, resp)
	default:
		util.BadRequest(ctx, "Unknown speech engine")
	}
}

// @Summary 选择朗读音色
// @Description 优先选择名称含高质量标记的英文音色，其次任意英文音色
// @Tags 语音
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param voices body VoiceRequest true "客户端可用音色"
// @Success 200 {object} util.Response{data=VoiceResponse}
// @Router /api/speech/voice [post]
func (c *SpeechController) SelectVoice(ctx *gin.Context) {
	var req VoiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var resp VoiceResponse
	if v, ok := c.SpeechService.SelectVoice(req.Voices); ok {
		resp.Voice = &v
	}
	util.Success(ctx, resp)
}

// @Summary ElevenLabs 音色列表
// @Tags 语音
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]speech.ProviderVoice}
// @Router /api/speech/voices [get]
func (c *SpeechController) ListVoices(ctx *gin.Context) {
	voices, err := c.SpeechService.ProviderVoices(ctx.Request.Context())
	if err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
		return
	}
	util.Success(ctx, voices)
}
