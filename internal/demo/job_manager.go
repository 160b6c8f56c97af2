package demo

import (
	"fmt"
	"log/slog"
	"time"

	"gormscope"
)

// JobManager coordinates the background jobs of the demo service.
// Provides a unified interface to start and stop all of them.
type JobManager struct {
	cleanupJob *StaleUserCleanupJob
	statsJob   *UserStatsJob
}

// NewJobManager creates a job manager with all required jobs.
func NewJobManager(db *gormscope.DB, retention time.Duration, logger *slog.Logger) *JobManager {
	return &JobManager{
		cleanupJob: NewStaleUserCleanupJob(db, retention, logger),
		statsJob:   NewUserStatsJob(db, logger),
	}
}

// StartAll starts all background jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.statsJob.Start(); err != nil {
		return fmt.Errorf("failed to start user stats job: %w", err)
	}

	if err := jm.cleanupJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.statsJob.Stop()
		return fmt.Errorf("failed to start stale user cleanup job: %w", err)
	}

	return nil
}

// StopAll stops all background jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.cleanupJob.Stop()
	jm.statsJob.Stop()
}
