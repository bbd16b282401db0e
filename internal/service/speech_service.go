package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/logger"
	"learning_companion_backend/pkg/monitoring"
	"learning_companion_backend/pkg/speech"

	"go.uber.org/zap"
)

const (
	EnginePlatform   = "platform"
	EngineElevenLabs = "elevenlabs"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
	ListVoices(ctx context.Context) ([]speech.ProviderVoice, error)
}

// SpeechResult 语音是锦上添花的功能，失败只体现为 Available=false
type SpeechResult struct {
	Available bool   `json:"available"`
	Engine    string `json:"engine"`
	URL       string `json:"url,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

type SpeechService struct {
	Synth   Synthesizer
	Storage *StorageService

	voiceID string
	modelID string
	markers []string
}

// NewSpeechService 未配置密钥时 Synth 为 nil，ElevenLabs 请求一律返回不可用
func NewSpeechService(cfg config.SpeechConfig, storage *StorageService) *SpeechService {
	s := &SpeechService{
		Storage: storage,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
		markers: cfg.QualityMarkers,
	}
	if !cfg.Enabled {
		return s
	}
	client, err := speech.NewClient(speech.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		VoiceID: cfg.VoiceID,
		ModelID: cfg.ModelID,
	})
	if err != nil {
		logger.Log.Warn("ElevenLabs speech disabled", zap.Error(err))
		return s
	}
	s.Synth = client
	return s
}

func (s *SpeechService) objectKey(text, voiceID string) string {
	sum := sha256.Sum256([]byte(s.modelID + "\x00" + voiceID + "\x00" + text))
	return util.SpeechObjectPrefix + hex.EncodeToString(sum[:]) + ".mp3"
}

// Synthesize 合成音频并存入对象存储，相同文本与音色直接复用已有文件
func (s *SpeechService) Synthesize(ctx context.Context, text, voiceID string) SpeechResult {
	result := SpeechResult{Engine: EngineElevenLabs}
	if strings.TrimSpace(text) == "" {
		return result
	}
	if s.Synth == nil {
		monitoring.SpeechRequests.WithLabelValues("disabled").Inc()
		return result
	}
	if voiceID == "" {
		voiceID = s.voiceID
	}

	key := s.objectKey(text, voiceID)
	if ok, err := s.Storage.Exists(ctx, key); err == nil && ok {
		monitoring.SpeechRequests.WithLabelValues("cached").Inc()
		return SpeechResult{Available: true, Engine: EngineElevenLabs, URL: s.Storage.URL(key), Cached: true}
	}

	audio, err := s.Synth.Synthesize(ctx, text, voiceID)
	if err == nil && (len(audio) == 0 || util.LooksLikeJSON(audio)) {
		err = errors.New("speech provider returned no audio")
	}
	if err != nil {
		monitoring.SpeechRequests.WithLabelValues("failed").Inc()
		logger.Log.Warn("ElevenLabs TTS error", zap.String("voiceID", voiceID), zap.Error(err))
		return result
	}

	contentType, sniffErr := util.SniffMimeType(audio, []string{"audio/"})
	if sniffErr != nil {
		contentType = util.MimeAudioMPEG
	}

	url, err := s.Storage.Put(ctx, key, audio, contentType)
	if err != nil {
		monitoring.SpeechRequests.WithLabelValues("failed").Inc()
		logger.Log.Warn("Failed to store speech audio", zap.String("key", key), zap.Error(err))
		return result
	}

	monitoring.SpeechRequests.WithLabelValues("success").Inc()
	return SpeechResult{Available: true, Engine: EngineElevenLabs, URL: url}
}

// PlatformUtterance 为客户端自带的语音引擎挑选音色和参数
func (s *SpeechService) PlatformUtterance(text string, voices []speech.Voice, opts speech.UtteranceOptions) (speech.Utterance, bool) {
	return speech.NewUtterance(text, voices, s.markers, opts)
}

func (s *SpeechService) SelectVoice(voices []speech.Voice) (speech.Voice, bool) {
	return speech.SelectVoice(voices, s.markers)
}

// ProviderVoices 列出 ElevenLabs 账号下可用的音色
func (s *SpeechService) ProviderVoices(ctx context.Context) ([]speech.ProviderVoice, error) {
	if s.Synth == nil {
		return nil, util.ErrSpeechUnavailable
	}
	voices, err := s.Synth.ListVoices(ctx)
	if err != nil {
		logger.Log.Warn("ElevenLabs voice listing failed", zap.Error(err))
		return nil, util.ErrSpeechUnavailable
	}
	return voices, nil
}
