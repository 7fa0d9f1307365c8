package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.VisionBackend)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "X-User-ID", cfg.AuthHeader)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("VISION_BACKEND", "ollama")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("PHOTO_BACKEND", "s3")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("LOG_FORMAT", "text")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "ollama", cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, "s3", cfg.PhotoBackend)
	assert.False(t, cfg.S3UseSSL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("S3_USE_SSL", "maybe")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.S3UseSSL)
}

func TestImageSearchEnabled(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("GOOGLE_CUSTOM_SEARCH_CX", "")
	assert.False(t, Load().ImageSearchEnabled())

	t.Setenv("GOOGLE_CUSTOM_SEARCH_CX", "cx")
	assert.True(t, Load().ImageSearchEnabled())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OLLAMA_MODEL=from-dotenv\n"), 0600))
	t.Chdir(dir)
	// t.Setenv registers cleanup so the value loaded from .env does not leak.
	t.Setenv("OLLAMA_MODEL", "")
	require.NoError(t, os.Unsetenv("OLLAMA_MODEL"))

	assert.Equal(t, "from-dotenv", Load().OllamaModel)
}
