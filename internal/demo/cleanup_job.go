package demo

import (
	"context"
	"log/slog"
	"time"

	"gormscope"
	"gormscope/session"

	"github.com/robfig/cron/v3"
)

// StaleUserCleanupJob removes user accounts that have been inactive for
// longer than the retention window. Runs once a minute inside its own scope,
// so a failing sweep rolls back without leaving partial deletes behind.
type StaleUserCleanupJob struct {
	db        *gormscope.DB
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewStaleUserCleanupJob creates a cleanup job with the given retention window.
func NewStaleUserCleanupJob(db *gormscope.DB, retention time.Duration, logger *slog.Logger) *StaleUserCleanupJob {
	return &StaleUserCleanupJob{
		db:        db,
		retention: retention,
		cron:      cron.New(),
		logger:    logger.With("component", "stale_user_cleanup_job"),
	}
}

// Start begins the cleanup job to run every minute.
func (j *StaleUserCleanupJob) Start() error {
	_, err := j.cron.AddFunc("* * * * *", func() {
		ctx := context.Background()
		cutoff := time.Now().UTC().Add(-j.retention)

		err := j.db.WithScope(ctx, func(ctx context.Context, sess *session.Session) error {
			removed, err := sess.Exec(ctx, "DELETE FROM users WHERE last_seen_at < ?", cutoff)
			if err != nil {
				return err
			}
			if removed > 0 {
				j.logger.InfoContext(ctx, "Removed stale users", "count", removed)
			}
			return nil
		})
		if err != nil {
			j.logger.ErrorContext(ctx, "Stale user cleanup failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stale user cleanup job started (running every minute)")
	return nil
}

// Stop stops the cleanup job.
func (j *StaleUserCleanupJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Stale user cleanup job stopped")
}
