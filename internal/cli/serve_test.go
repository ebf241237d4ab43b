package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runServeCommand(t *testing.T, args ...string) error {
	t.Helper()

	cmd := GetRootCmd()
	cmd.SetArgs(append([]string{"serve"}, args...))

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	return cmd.Execute()
}

func TestServeCommandRejectsInvalidConfig(t *testing.T) {
	t.Run("empty fallback audio path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "voxa.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"server": {"fallback_audio_path": ""}}`), 0600))

		err := runServeCommand(t, "--config", configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "fallback audio")
	})

	t.Run("malformed credential", func(t *testing.T) {
		t.Setenv("VOXA_LLM_API_KEY", "not-a-gemini-key")
		configPath := filepath.Join(t.TempDir(), "voxa.json")

		err := runServeCommand(t, "--config", configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "Gemini API key")
	})
}
