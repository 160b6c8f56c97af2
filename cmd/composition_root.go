package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gormscope"
	"gormscope/internal/demo"
)

const defaultUserRetention = 90 * 24 * time.Hour

type CompositionRoot struct {
	config Config
	db     *gormscope.DB
}

func NewCompositionRoot(config Config, db *gormscope.DB) CompositionRoot {
	return CompositionRoot{
		config: config,
		db:     db,
	}
}

// DSN builds the PostgreSQL connection string from the configuration.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c *CompositionRoot) CreateServer() *demo.Server {
	return demo.NewServer(c.db)
}

func (c *CompositionRoot) CreateJobManager(logger *slog.Logger) *demo.JobManager {
	retention := defaultUserRetention
	if hours, err := strconv.Atoi(c.config.UserRetentionHours); err == nil && hours > 0 {
		retention = time.Duration(hours) * time.Hour
	}
	return demo.NewJobManager(c.db, retention, logger)
}
