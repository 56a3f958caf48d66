package session

// janitor.go runs the periodic session sweep.
//
// The janitor is long-running and logs each pass. A sweep never fails the
// application; it only closes portals of sessions that expired.

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Janitor sweeps a Store on a fixed interval.
type Janitor struct {
	scheduler *gocron.Scheduler
	store     *Store
	logger    *slog.Logger
}

// StartJanitor schedules store sweeps every interval and starts them in the
// background. The first sweep runs immediately.
func StartJanitor(store *Store, interval time.Duration, logger *slog.Logger) (*Janitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("session sweep interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	j := &Janitor{scheduler: s, store: store, logger: logger}
	if _, err := s.Every(interval).Do(j.run); err != nil {
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}

	logger.Info("session janitor started", "interval", interval.String())
	s.StartAsync()
	return j, nil
}

// run performs one sweep.
func (j *Janitor) run() {
	start := time.Now()
	removed := j.store.Sweep()
	if removed > 0 {
		j.logger.Info("expired sessions removed",
			"sessions_removed", removed,
			"sessions_live", j.store.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	j.logger.Debug("session sweep completed", "sessions_live", j.store.Len())
}

// Stop halts the schedule. A sweep in progress completes.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
	j.logger.Info("session janitor stopped")
}
