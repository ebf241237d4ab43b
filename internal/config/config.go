package config

// Config represents the main Voxa configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Speech to text
	STT STTConfig `json:"stt" mapstructure:"stt"`

	// Reply generation
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// Speech synthesis
	TTS TTSConfig `json:"tts" mapstructure:"tts"`

	// Session store
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	StaticDir          string `json:"static_dir" mapstructure:"static_dir"`
	FallbackAudioPath  string `json:"fallback_audio_path" mapstructure:"fallback_audio_path"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// STTConfig holds transcription provider configuration
type STTConfig struct {
	Provider     string `json:"provider" mapstructure:"provider"` // assemblyai, google
	APIKey       string `json:"api_key" mapstructure:"api_key"`
	LanguageCode string `json:"language_code" mapstructure:"language_code"`
}

// LLMConfig holds reply-generation provider configuration
type LLMConfig struct {
	Provider     string `json:"provider" mapstructure:"provider"` // gemini, openai, anthropic
	APIKey       string `json:"api_key" mapstructure:"api_key"`
	Model        string `json:"model" mapstructure:"model"`
	SystemPrompt string `json:"system_prompt" mapstructure:"system_prompt"`
	MaxTokens    int    `json:"max_tokens" mapstructure:"max_tokens"`
}

// TTSConfig holds speech-synthesis provider configuration
type TTSConfig struct {
	APIKey         string `json:"api_key" mapstructure:"api_key"`
	Voice          string `json:"voice" mapstructure:"voice"`
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	ReportSchedule string `json:"report_schedule" mapstructure:"report_schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			StaticDir:          "static",
			FallbackAudioPath:  "static/fallback.mp3",
			RateLimitPerMinute: 100,
		},
		STT: STTConfig{
			Provider:     "assemblyai",
			LanguageCode: "en-US",
		},
		LLM: LLMConfig{
			Provider: "gemini",
		},
		TTS: TTSConfig{
			TimeoutSeconds: 30,
		},
		Session: SessionConfig{
			ReportSchedule: "@every 15m",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Redaction: true,
		},
	}
}

// MissingCredentials returns the subsystems whose provider credential is
// absent. The Google transcription provider authenticates through
// Application Default Credentials and needs no key here.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.STT.APIKey == "" && c.STT.Provider != "google" {
		missing = append(missing, "stt")
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm")
	}
	if c.TTS.APIKey == "" {
		missing = append(missing, "tts")
	}
	return missing
}
