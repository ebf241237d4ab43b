package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/internal/observability"
)

// DefaultReportSchedule logs store stats every 15 minutes.
const DefaultReportSchedule = "@every 15m"

// Reporter periodically logs the resident session count and refreshes the
// active-sessions gauge. It never deletes anything; the store has no
// eviction by design.
type Reporter struct {
	store    *Store
	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID
	logger   zerolog.Logger
	running  bool
}

// NewReporter creates a stats reporter for the given store.
func NewReporter(store *Store, schedule string, logger zerolog.Logger) *Reporter {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}

	return &Reporter{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With().Str("component", "session-reporter").Logger(),
	}
}

// Start begins periodic reporting.
func (r *Reporter) Start() error {
	if r.running {
		return fmt.Errorf("reporter is already running")
	}

	id, err := r.cron.AddFunc(r.schedule, r.report)
	if err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", r.schedule, err)
	}

	r.entryID = id
	r.cron.Start()
	r.running = true

	r.logger.Info().Str("schedule", r.schedule).Msg("Session stats reporter started")

	return nil
}

// Stop halts periodic reporting. Safe to call when not running.
func (r *Reporter) Stop() {
	if !r.running {
		return
	}

	r.cron.Stop()
	r.running = false

	r.logger.Info().Msg("Session stats reporter stopped")
}

func (r *Reporter) report() {
	count := r.store.Count()
	observability.SetActiveSessions(count)

	r.logger.Info().Int("active_sessions", count).Msg("Session store stats")
}
