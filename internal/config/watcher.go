package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is called with the freshly loaded configuration after
// the config file changes on disk.
type ReloadCallback func(cfg *Config)

// Watcher monitors the config file and reloads it on change. Reloads are
// debounced because editors commonly produce bursts of write events.
type Watcher struct {
	loader     *Loader
	configPath string
	onReload   ReloadCallback
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	timerMu    sync.Mutex
	timer      *time.Timer
	done       chan struct{}
	stopOnce   sync.Once
	logger     zerolog.Logger
}

// NewWatcher creates a config file watcher.
func NewWatcher(loader *Loader, onReload ReloadCallback, logger zerolog.Logger) (*Watcher, error) {
	configPath, err := loader.Path()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		loader:     loader,
		configPath: configPath,
		onReload:   onReload,
		watcher:    fsw,
		debounce:   200 * time.Millisecond,
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "config-watcher").Logger(),
	}, nil
}

// Start begins watching the config file's directory. Watching the
// directory rather than the file survives atomic rename-replace saves.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.eventLoop()

	w.logger.Info().Str("path", w.configPath).Msg("Config watcher started")

	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Error().Err(err).Msg("Config reload failed, keeping previous configuration")
		return
	}

	w.logger.Info().Msg("Config reloaded")
	w.onReload(cfg)
}
