package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInitCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := GetRootCmd()
	cmd.SetArgs(append([]string{"init"}, args...))

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	err := cmd.Execute()
	return output.String(), err
}

func TestInitCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "voxa.json")

	output, err := runInitCommand(t, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, output, configPath)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "server")
	assert.Contains(t, raw, "stt")
	assert.Contains(t, raw, "llm")
	assert.Contains(t, raw, "tts")
}

func TestInitCommandExisting(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "voxa.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0600))

	_, err := runInitCommand(t, "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// --force overwrites
	_, err = runInitCommand(t, "--config", configPath, "--force")
	require.NoError(t, err)
}
