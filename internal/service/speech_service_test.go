package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/speech"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	calls int
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

func (f *fakeSynth) ListVoices(ctx context.Context) ([]speech.ProviderVoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []speech.ProviderVoice{{VoiceID: "voice-1", Name: "Adam"}}, nil
}

func newTestSpeechService(t *testing.T, synth Synthesizer) (*SpeechService, string) {
	t.Helper()
	root := t.TempDir()
	storage := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: root})
	svc := NewSpeechService(config.SpeechConfig{VoiceID: "voice-1", ModelID: "eleven_monolingual_v1"}, storage)
	svc.Synth = synth
	return svc, root
}

func TestSpeechService_SynthesizeStoresAndReuses(t *testing.T) {
	synth := &fakeSynth{audio: []byte("ID3\x03\x00\x00\x00fake-mp3")}
	svc, root := newTestSpeechService(t, synth)

	res := svc.Synthesize(context.Background(), "Read this lesson", "")
	require.True(t, res.Available)
	assert.Equal(t, EngineElevenLabs, res.Engine)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/speech/"))
	assert.False(t, res.Cached)

	stored, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(res.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, synth.audio, stored)

	again := svc.Synthesize(context.Background(), "Read this lesson", "")
	assert.True(t, again.Cached)
	assert.Equal(t, res.URL, again.URL)
	assert.Equal(t, 1, synth.calls)

	other := svc.Synthesize(context.Background(), "Read this lesson", "voice-2")
	assert.NotEqual(t, res.URL, other.URL)
	assert.Equal(t, 2, synth.calls)
}

func TestSpeechService_ErrorsAreSwallowed(t *testing.T) {
	tests := []struct {
		name  string
		synth Synthesizer
		text  string
	}{
		{"disabled", nil, "hello"},
		{"provider error", &fakeSynth{err: errors.New("401")}, "hello"},
		{"json instead of audio", &fakeSynth{audio: []byte(`{"detail":"quota"}`)}, "hello"},
		{"blank text", &fakeSynth{audio: []byte("ID3")}, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSpeechService(t, tt.synth)
			res := svc.Synthesize(context.Background(), tt.text, "")
			assert.False(t, res.Available)
			assert.Empty(t, res.URL)
		})
	}

	svc, _ := newTestSpeechService(t, &fakeSynth{})
	_, ok := svc.PlatformUtterance("", nil, speech.UtteranceOptions{})
	assert.False(t, ok)
}

func TestSpeechService_PlatformUtterance(t *testing.T) {
	svc, _ := newTestSpeechService(t, nil)
	svc.markers = []string{"Google"}

	u, ok := svc.PlatformUtterance("Hi", []speech.Voice{
		{Name: "Samantha", Lang: "en-US"},
		{Name: "Google US English", Lang: "en-US"},
	}, speech.UtteranceOptions{})
	require.True(t, ok)
	require.NotNil(t, u.Voice)
	assert.Equal(t, "Google US English", u.Voice.Name)
	assert.Equal(t, 0.9, u.Rate)
}

func TestSpeechService_ProviderVoices(t *testing.T) {
	svc, _ := newTestSpeechService(t, nil)
	_, err := svc.ProviderVoices(context.Background())
	assert.ErrorIs(t, err, util.ErrSpeechUnavailable)

	svc.Synth = &fakeSynth{}
	voices, err := svc.ProviderVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "Adam", voices[0].Name)
}
