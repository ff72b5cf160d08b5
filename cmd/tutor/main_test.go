package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/tutor"
	"github.com/fwojciec/tutor/gemini"
	tutorhttp "github.com/fwojciec/tutor/http"
	tutorjson "github.com/fwojciec/tutor/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(filepath.Join(t.TempDir(), "missing.toml"), flagValues{}, envValues{})
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, tutor.BackendHTTP, cfg.Backend)
}

func TestResolveConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "base_url = \"https://file.example\"\ndepartment = \"math\"\n")
	cfg, err := resolveConfig(path, flagValues{}, envValues{})
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", cfg.BaseURL)
	assert.Equal(t, "math", cfg.Department)
}

func TestResolveConfig_EnvOverridesFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "base_url = \"https://file.example\"\n")
	cfg, err := resolveConfig(path, flagValues{}, envValues{baseURL: "https://env.example"})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.BaseURL)
}

func TestResolveConfig_FlagOverridesEnv(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "base_url = \"https://file.example\"\nchroma_style = \"github\"\n")
	cfg, err := resolveConfig(path,
		flagValues{baseURL: "https://flag.example", style: "dracula", backend: "gemini", model: "m"},
		envValues{baseURL: "https://env.example"},
	)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example", cfg.BaseURL)
	assert.Equal(t, "dracula", cfg.ChromaStyle)
	assert.Equal(t, tutor.BackendGemini, cfg.Backend)
	assert.Equal(t, "m", cfg.Model)
}

func TestResolveConfig_UnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := resolveConfig(filepath.Join(t.TempDir(), "missing.toml"), flagValues{backend: "openai"}, envValues{})
	require.ErrorIs(t, err, tutor.ErrValidation)
}

func TestResolveConfig_BadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "colour = \"red\"\n")
	_, err := resolveConfig(path, flagValues{}, envValues{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestResolveBackend_HTTP(t *testing.T) {
	t.Parallel()
	b, err := resolveBackend(context.Background(), tutor.Config{Backend: tutor.BackendHTTP, BaseURL: "http://x"}, "", discard)
	require.NoError(t, err)
	assert.IsType(t, &tutorhttp.Client{}, b)
}

func TestResolveBackend_Gemini(t *testing.T) {
	t.Parallel()
	b, err := resolveBackend(context.Background(), tutor.Config{Backend: tutor.BackendGemini}, "gk-test", discard)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, b)
}

func TestResolveBackend_GeminiMissingKey(t *testing.T) {
	t.Parallel()
	_, err := resolveBackend(context.Background(), tutor.Config{Backend: tutor.BackendGemini}, "", discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY not set")
}

func TestResolveBackend_Unknown(t *testing.T) {
	t.Parallel()
	_, err := resolveBackend(context.Background(), tutor.Config{Backend: "carrier-pigeon"}, "", discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestLoadOrCreateSession(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("new session has a uuid", func(t *testing.T) {
		t.Parallel()
		s, err := loadOrCreateSession("", now)
		require.NoError(t, err)
		assert.Len(t, s.ID, 36)
		assert.Equal(t, now, s.CreatedAt)
	})

	t.Run("missing path starts fresh", func(t *testing.T) {
		t.Parallel()
		s, err := loadOrCreateSession(filepath.Join(t.TempDir(), "new.json"), now)
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Empty(t, s.Entries)
	})

	t.Run("existing path is resumed", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "s.json")
		saved := tutor.NewSession("resume-me", now)
		saved.AppendEntry(tutor.ChatEntry{Role: tutor.RoleUser, Text: "hi", Timestamp: now})
		require.NoError(t, tutorjson.Save(path, saved))

		s, err := loadOrCreateSession(path, now)
		require.NoError(t, err)
		assert.Equal(t, "resume-me", s.ID)
		require.Len(t, s.Entries, 1)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := loadOrCreateSession(path, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load session")
	})
}

func TestOpenLogger(t *testing.T) {
	t.Parallel()

	t.Run("empty path discards", func(t *testing.T) {
		t.Parallel()
		logger, closeFn, err := openLogger("")
		require.NoError(t, err)
		defer closeFn()
		logger.Info("dropped")
	})

	t.Run("writes JSON records to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logs", "tutor.log")
		logger, closeFn, err := openLogger(path)
		require.NoError(t, err)
		logger.Info("session ready", "id", "abc")
		closeFn()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"session ready"`)
		assert.Contains(t, string(data), `"id":"abc"`)
	})
}

func TestNewLogger_DebugLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	newLogger(&buf).Debug("stream started")
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}
