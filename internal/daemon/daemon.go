// Package daemon wires the provider clients, session store, orchestrator
// and HTTP surface into one long-running service.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yilmaz/voxa/internal/config"
	"github.com/yilmaz/voxa/internal/logger"
	"github.com/yilmaz/voxa/internal/observability"
	"github.com/yilmaz/voxa/internal/tracing"
	"github.com/yilmaz/voxa/pkg/orchestrator"
	"github.com/yilmaz/voxa/pkg/reply"
	"github.com/yilmaz/voxa/pkg/server"
	"github.com/yilmaz/voxa/pkg/session"
	"github.com/yilmaz/voxa/pkg/stt"
	"github.com/yilmaz/voxa/pkg/tts"
)

// Daemon represents the voxa assistant service
type Daemon struct {
	config *config.Config
	loader *config.Loader
	logger *logger.Logger

	// Pipeline
	sessions     *session.Store
	transcriber  stt.Transcriber
	generator    reply.Generator
	synthesizer  *tts.Client
	orchestrator *orchestrator.Orchestrator

	// Services
	server        *server.Server
	reporter      *session.Reporter
	configWatcher *config.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime time.Time
	running   bool
	mu        sync.RWMutex

	tracingEnabled bool
}

// Status describes the daemon's runtime state
type Status struct {
	Running        bool
	Uptime         time.Duration
	ActiveSessions int
	Subsystems     server.SubsystemHealth
}

// New creates a new daemon instance. Missing provider credentials do not
// fail construction: the affected client stays nil, /health reports the
// subsystem down and every chat turn short-circuits to the fallback audio.
func New(cfg *config.Config, loader *config.Loader, log *logger.Logger) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	observability.EnsureRegistered()
	tracingEnabled := false
	if err := tracing.InitOpenTelemetry("voxa-daemon"); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
	} else {
		log.Info().Msg("Tracing initialized successfully")
		tracingEnabled = true
	}

	d := &Daemon{
		config:         cfg,
		loader:         loader,
		logger:         log,
		ctx:            ctx,
		cancel:         cancel,
		tracingEnabled: tracingEnabled,
	}

	if err := d.initializePipeline(); err != nil {
		cancel()
		if d.tracingEnabled {
			_ = tracing.ShutdownOpenTelemetry(context.Background())
			d.tracingEnabled = false
		}
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := d.initializeServices(); err != nil {
		cancel()
		if d.tracingEnabled {
			_ = tracing.ShutdownOpenTelemetry(context.Background())
			d.tracingEnabled = false
		}
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return d, nil
}

// initializePipeline constructs the session store and whichever provider
// clients have credentials
func (d *Daemon) initializePipeline() error {
	zl := d.logger.GetZerolog()

	d.sessions = session.NewStore(zl)
	d.logger.Info().Msg("Session store initialized")

	if missing := d.config.MissingCredentials(); len(missing) > 0 {
		d.logger.Warn().
			Strs("subsystems", missing).
			Msg("Provider credentials missing, starting degraded")
	}

	transcriber, err := stt.New(stt.Config{
		Provider:     d.config.STT.Provider,
		APIKey:       d.config.STT.APIKey,
		LanguageCode: d.config.STT.LanguageCode,
	}, zl)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Transcription client unavailable")
	} else {
		d.transcriber = transcriber
		d.logger.Info().Str("provider", transcriber.Provider()).Msg("Transcription client initialized")
	}

	generator, err := reply.New(reply.Config{
		Provider:     d.config.LLM.Provider,
		APIKey:       d.config.LLM.APIKey,
		Model:        d.config.LLM.Model,
		SystemPrompt: d.config.LLM.SystemPrompt,
		MaxTokens:    d.config.LLM.MaxTokens,
	}, zl)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Reply client unavailable")
	} else {
		d.generator = generator
		d.logger.Info().Str("provider", generator.Provider()).Msg("Reply client initialized")
	}

	synthesizer, err := tts.NewClient(d.config.TTS.APIKey, tts.Options{
		BaseURL: d.config.TTS.BaseURL,
		Timeout: time.Duration(d.config.TTS.TimeoutSeconds) * time.Second,
	}, zl)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Synthesis client unavailable")
	} else {
		d.synthesizer = synthesizer
		d.logger.Info().Str("provider", synthesizer.Provider()).Msg("Synthesis client initialized")
	}

	return nil
}

// initializeServices constructs the orchestrator, HTTP server, stats
// reporter and config watcher
func (d *Daemon) initializeServices() error {
	zl := d.logger.GetZerolog()

	srv, err := server.NewServer(server.ServerOptions{
		Host:               d.config.Server.Host,
		Port:               d.config.Server.Port,
		StaticDir:          d.config.Server.StaticDir,
		FallbackAudioPath:  d.config.Server.FallbackAudioPath,
		RateLimitPerMinute: d.config.Server.RateLimitPerMinute,
	}, server.Dependencies{
		Runner:   nil,
		Sessions: d.sessions,
		Health:   d.subsystemHealth,
		Logger:   zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	d.server = srv

	if d.transcriber != nil && d.generator != nil && d.synthesizer != nil {
		orch, err := orchestrator.New(orchestrator.Config{
			Transcriber: d.transcriber,
			Generator:   d.generator,
			Synthesizer: d.synthesizer,
			Sessions:    d.sessions,
			Voice:       d.config.TTS.Voice,
			Events:      srv.BroadcastTurnEvent,
			Logger:      zl,
		})
		if err != nil {
			return fmt.Errorf("failed to create orchestrator: %w", err)
		}
		d.orchestrator = orch
		srv.SetRunner(orch)
		d.logger.Info().Msg("Turn orchestrator initialized")
	} else {
		d.logger.Warn().Msg("Turn orchestrator disabled, chat requests will serve fallback audio")
	}

	schedule := d.config.Session.ReportSchedule
	if schedule == "" {
		schedule = session.DefaultReportSchedule
	}
	d.reporter = session.NewReporter(d.sessions, schedule, zl)

	if d.loader != nil {
		watcher, err := config.NewWatcher(d.loader, d.handleConfigReload, zl)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Config watcher unavailable, continuing without hot reload")
		} else {
			d.configWatcher = watcher
		}
	}

	return nil
}

// subsystemHealth reports which pipeline pieces came up
func (d *Daemon) subsystemHealth() server.SubsystemHealth {
	return server.SubsystemHealth{
		STT:          d.transcriber != nil,
		LLM:          d.generator != nil,
		TTS:          d.synthesizer != nil,
		SessionStore: d.sessions != nil,
	}
}

// handleConfigReload applies the runtime-adjustable settings from a
// changed config file. Provider clients are not rebuilt.
func (d *Daemon) handleConfigReload(cfg *config.Config) {
	d.mu.Lock()
	previous := d.config.Logging.Level
	d.config = cfg
	d.mu.Unlock()

	if cfg.Logging.Level != previous {
		d.logger.SetLevel(cfg.Logging.Level)
		d.logger.Info().
			Str("from", previous).
			Str("to", cfg.Logging.Level).
			Msg("Log level updated from config reload")
	}
}

// Start starts the daemon's services
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	d.logger.Info().Msg("Starting voxa daemon")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.server.Start(); err != nil {
			d.logger.Error().Err(err).Msg("Assistant server error")
		}
	}()
	d.logger.Info().Msg("Assistant server started")

	if err := d.reporter.Start(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to start session stats reporter")
	} else {
		d.logger.Info().Msg("Session stats reporter started")
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to start config watcher")
		} else {
			d.logger.Info().Msg("Config watcher started")
		}
	}

	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info().Msg("Stopping voxa daemon")

	if d.configWatcher != nil {
		d.configWatcher.Stop()
	}

	d.reporter.Stop()

	if err := d.server.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop assistant server")
	}

	d.cancel()
	d.wg.Wait()

	if closer, ok := d.transcriber.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to close transcription client")
		}
	}

	if d.tracingEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to shutdown tracing")
		}
		d.tracingEnabled = false
	}

	d.logger.Info().Msg("Voxa daemon stopped")
	return nil
}

// Wait blocks until an interrupt or termination signal arrives, then
// stops the daemon
func (d *Daemon) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	d.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	return d.Stop()
}

// Status returns the daemon's runtime state
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var uptime time.Duration
	if d.running {
		uptime = time.Since(d.startTime)
	}

	return Status{
		Running:        d.running,
		Uptime:         uptime,
		ActiveSessions: d.sessions.Count(),
		Subsystems:     d.subsystemHealth(),
	}
}

// GetConfig returns the daemon's current configuration
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// GetSessions returns the session store
func (d *Daemon) GetSessions() *session.Store {
	return d.sessions
}

// GetOrchestrator returns the turn orchestrator, nil when any provider
// client failed to initialize
func (d *Daemon) GetOrchestrator() *orchestrator.Orchestrator {
	return d.orchestrator
}
