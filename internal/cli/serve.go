package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yilmaz/voxa/internal/config"
	"github.com/yilmaz/voxa/internal/daemon"
	"github.com/yilmaz/voxa/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant server in the foreground",
	Long: `Run the assistant server in the foreground until interrupted.
Provider API keys are read from the environment (ASSEMBLYAI_API_KEY,
GEMINI_API_KEY, MURF_API_KEY) or from the config file. Missing keys do
not prevent startup; the server reports itself unhealthy and answers
chat requests with the fallback audio.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, loader, log)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	return d.Wait()
}
