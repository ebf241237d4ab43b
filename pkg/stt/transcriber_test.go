package stt

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AssemblyAI(t *testing.T) {
	tr, err := New(Config{Provider: "assemblyai", APIKey: "aai-test-key"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "assemblyai", tr.Provider())
}

func TestNew_DefaultsToAssemblyAI(t *testing.T) {
	tr, err := New(Config{APIKey: "aai-test-key"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "assemblyai", tr.Provider())
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{Provider: "assemblyai"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(Config{Provider: "whisper"}, zerolog.Nop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transcription provider")
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short text", "hello", "hello"},
		{"exactly at limit", string(make([]byte, 100)), string(make([]byte, 100))},
		{"truncated", string(make([]byte, 150)), string(make([]byte, 100)) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preview(tt.in))
		})
	}
}
