package demo

import (
	"context"
	"log/slog"

	"gormscope"

	"github.com/robfig/cron/v3"
)

// UserStatsJob periodically reports the registered user count.
// A read-only sweep, so it runs through the facade on a throwaway session.
type UserStatsJob struct {
	db     *gormscope.DB
	cron   *cron.Cron
	logger *slog.Logger
}

// NewUserStatsJob creates a job reporting user statistics every five minutes.
func NewUserStatsJob(db *gormscope.DB, logger *slog.Logger) *UserStatsJob {
	return &UserStatsJob{
		db:     db,
		cron:   cron.New(),
		logger: logger.With("component", "user_stats_job"),
	}
}

// Start begins the stats job.
func (j *UserStatsJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * *", func() {
		ctx := context.Background()

		var total int64
		if err := j.db.Scalar(ctx, &total, gormscope.Stmt("SELECT count(*) FROM users")); err != nil {
			j.logger.ErrorContext(ctx, "User stats query failed", "error", err)
			return
		}

		j.logger.InfoContext(ctx, "User stats", "registered_users", total)
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "User stats job started (running every five minutes)")
	return nil
}

// Stop stops the stats job.
func (j *UserStatsJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "User stats job stopped")
}
