package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageProvider(t *testing.T) {
	root := t.TempDir()
	svc := NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: root})
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "speech/a.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	url, err := svc.Put(ctx, "speech/a.mp3", []byte("audio"), util.MimeAudioMPEG)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/speech/a.mp3", url)

	data, err := os.ReadFile(filepath.Join(root, "speech", "a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	ok, err = svc.Exists(ctx, "speech/a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "speech/a.mp3"))
	ok, err = svc.Exists(ctx, "speech/a.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Put(ctx, "../escape.mp3", []byte("x"), util.MimeAudioMPEG)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestNewStorageService_FallsBackToLocal(t *testing.T) {
	svc := NewStorageService(&config.StorageConfig{Type: util.StorageMinio, LocalPath: t.TempDir()})
	_, isLocal := svc.Provider.(*LocalStorageProvider)
	assert.True(t, isLocal)
}
