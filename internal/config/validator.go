package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the shape of the JSON config file. Credential
// values are validated separately; the schema only rejects structural
// mistakes before they surface as confusing unmarshal behavior.
const configSchema = `{
  "type": "object",
  "properties": {
    "server": {
      "type": "object",
      "properties": {
        "host": {"type": "string"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "static_dir": {"type": "string"},
        "fallback_audio_path": {"type": "string"},
        "rate_limit_per_minute": {"type": "integer", "minimum": 1}
      }
    },
    "stt": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["assemblyai", "google"]},
        "api_key": {"type": "string"},
        "language_code": {"type": "string"}
      }
    },
    "llm": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["gemini", "openai", "anthropic"]},
        "api_key": {"type": "string"},
        "model": {"type": "string"},
        "system_prompt": {"type": "string"},
        "max_tokens": {"type": "integer", "minimum": 1}
      }
    },
    "tts": {
      "type": "object",
      "properties": {
        "api_key": {"type": "string"},
        "voice": {"type": "string"},
        "base_url": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 1}
      }
    },
    "session": {
      "type": "object",
      "properties": {
        "report_schedule": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "console": {"type": "boolean"},
        "pretty": {"type": "boolean"},
        "redaction": {"type": "boolean"}
      }
    },
    "data_dir": {"type": "string"}
  }
}`

// validateSchema checks raw config file content against the schema.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format for the given provider.
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	case "gemini":
		if !strings.HasPrefix(key, "AIza") {
			return fmt.Errorf("invalid Gemini API key format (should start with AIza)")
		}
	}

	return nil
}

// Validate checks the whole configuration for values that would prevent
// startup. Missing credentials are NOT an error here: the process must
// still start and serve /health as unhealthy.
func (v *Validator) Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.STT.Provider {
	case "", "assemblyai", "google":
	default:
		return fmt.Errorf("unsupported transcription provider: %s", cfg.STT.Provider)
	}

	switch cfg.LLM.Provider {
	case "", "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported generation provider: %s", cfg.LLM.Provider)
	}

	if cfg.LLM.APIKey != "" {
		if err := v.ValidateAPIKey(cfg.LLM.APIKey, cfg.LLM.Provider); err != nil {
			return err
		}
	}

	if cfg.Server.FallbackAudioPath == "" {
		return fmt.Errorf("fallback audio path cannot be empty")
	}

	return nil
}
