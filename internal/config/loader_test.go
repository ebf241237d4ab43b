package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxa.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoader_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxa.json")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "assemblyai", cfg.STT.Provider)
}

func TestLoader_LoadsFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"server": {"port": 9090},
		"llm": {"provider": "openai", "model": "gpt-4o-mini"},
		"tts": {"voice": "en-GB-oliver"}
	}`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "en-GB-oliver", cfg.TTS.Voice)

	// Untouched sections keep their defaults
	assert.Equal(t, "assemblyai", cfg.STT.Provider)
}

func TestLoader_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoader_SchemaRejectsBadShape(t *testing.T) {
	path := writeConfigFile(t, `{"server": {"port": "not-a-number"}}`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestLoader_SchemaRejectsUnknownProvider(t *testing.T) {
	path := writeConfigFile(t, `{"stt": {"provider": "whisper"}}`)

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverridesCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxa.json")

	t.Setenv("ASSEMBLYAI_API_KEY", "aai-env-key")
	t.Setenv("GEMINI_API_KEY", "AIza-env-key")
	t.Setenv("MURF_API_KEY", "murf-env-key")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "aai-env-key", cfg.STT.APIKey)
	assert.Equal(t, "AIza-env-key", cfg.LLM.APIKey)
	assert.Equal(t, "murf-env-key", cfg.TTS.APIKey)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoader_VoxaEnvNamesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxa.json")

	t.Setenv("VOXA_LLM_API_KEY", "sk-voxa")
	t.Setenv("VOXA_LLM_PROVIDER", "openai")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-voxa", cfg.LLM.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoader_SetsDerivedPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxa.json")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "voxa.log"), cfg.Logging.File)
}
