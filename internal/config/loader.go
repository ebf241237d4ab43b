package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Path returns the resolved config file path.
func (l *Loader) Path() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".voxa", "voxa.json"), nil
}

// Load loads the configuration from file and environment. Provider API
// keys normally arrive through the environment, either the VOXA_* names
// or the provider-native ones (ASSEMBLYAI_API_KEY, GEMINI_API_KEY,
// MURF_API_KEY).
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.Path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetEnvPrefix("VOXA")
	v.AutomaticEnv()

	// Credential env bindings, provider-native names included
	_ = v.BindEnv("stt.api_key", "VOXA_STT_API_KEY", "ASSEMBLYAI_API_KEY")
	_ = v.BindEnv("llm.api_key", "VOXA_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("tts.api_key", "VOXA_TTS_API_KEY", "MURF_API_KEY")
	_ = v.BindEnv("stt.provider", "VOXA_STT_PROVIDER")
	_ = v.BindEnv("llm.provider", "VOXA_LLM_PROVIDER")
	_ = v.BindEnv("llm.model", "VOXA_LLM_MODEL")
	_ = v.BindEnv("server.port", "VOXA_SERVER_PORT")

	// Config file is optional; env alone is a valid configuration
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := validateSchema(data); err != nil {
			return nil, fmt.Errorf("config schema validation failed: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".voxa")
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "voxa.log")
	}

	return cfg, nil
}

// Save writes the configuration to the resolved path, creating the
// directory when needed. The write is atomic: a temp file is renamed
// over the target.
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tempFile := configPath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config temp file: %w", err)
	}

	if err := os.Rename(tempFile, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	return nil
}
