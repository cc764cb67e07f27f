package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobRefreshMissingResources = "refresh_missing_resources"
	JobCleanupOldBatches       = "cleanup_old_batches"

	jobStatusRunning   = "running"
	jobStatusCompleted = "completed"
	jobStatusFailed    = "failed"
)

// ResourceRefresher re-runs the video search for questions without resources
type ResourceRefresher interface {
	RefreshResources(ctx context.Context, limit int) (checked, updated int, err error)
}

// BatchArchiveCleaner removes archived papers of a batch
type BatchArchiveCleaner interface {
	DeleteBatch(ctx context.Context, batchID string) error
}

// Config holds schedules and limits of the background jobs
type Config struct {
	RefreshSchedule string
	RefreshLimit    int
	CleanupSchedule string
	BatchRetention  time.Duration
	JobTimeout      time.Duration
}

// DefaultConfig runs the refresh hourly (20 questions) and the cleanup daily
// at 02:00 with a 30 day retention
func DefaultConfig() Config {
	return Config{
		RefreshSchedule: "0 0 * * * *",
		RefreshLimit:    20,
		CleanupSchedule: "0 0 2 * * *",
		BatchRetention:  30 * 24 * time.Hour,
		JobTimeout:      10 * time.Minute,
	}
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	refresher ResourceRefresher
	batches   *services.BatchStore
	archive   BatchArchiveCleaner
	config    Config
	logger    *utils.Logger
}

// NewCronManager creates a new cron manager. archive may be nil.
func NewCronManager(db *gorm.DB, refresher ResourceRefresher, archive BatchArchiveCleaner, config Config, logger *utils.Logger) *CronManager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		refresher: refresher,
		batches:   services.NewBatchStore(db),
		archive:   archive,
		config:    config,
		logger:    logger.With("component", "cron"),
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.logger.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Hourly: retry video search for questions stored without resources
	if m.refresher != nil {
		_, err := m.cron.AddFunc(m.config.RefreshSchedule, func() {
			m.runJob(JobRefreshMissingResources, m.RefreshMissingResources)
		})
		if err != nil {
			return err
		}
	}

	// 2. Daily at 2 AM: drop old analysis batches
	_, err := m.cron.AddFunc(m.config.CleanupSchedule, func() {
		m.runJob(JobCleanupOldBatches, m.CleanupOldBatches)
	})
	if err != nil {
		return err
	}

	return nil
}

// runJob wraps a job with a timeout and CronJobLog bookkeeping
func (m *CronManager) runJob(jobName string, job func(ctx context.Context) (string, map[string]interface{}, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.JobTimeout)
	defer cancel()

	entry := m.logJobStart(jobName)
	message, metadata, err := job(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message, metadata)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.logger.Info("job started", "job", jobName)

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    jobStatusRunning,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		m.logger.Error("failed to record job start", "job", jobName, "error", err)
	}
	return cronLog
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string, metadata map[string]interface{}) {
	m.logger.Info("job completed", "job", entry.JobName, "message", message)

	now := time.Now()
	updates := map[string]interface{}{
		"status":       jobStatusCompleted,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"message":      message,
	}
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			updates["metadata"] = datatypes.JSON(data)
		}
	}
	m.updateJobLog(entry, updates)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	m.logger.Error("job failed", "job", entry.JobName, "error", err)

	now := time.Now()
	m.updateJobLog(entry, map[string]interface{}{
		"status":       jobStatusFailed,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) updateJobLog(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		m.logger.Error("failed to update job log", "job", entry.JobName, "error", err)
	}
}
