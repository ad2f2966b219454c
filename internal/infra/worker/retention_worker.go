package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// RetentionSchedule runs the purge daily at 03:00 server time.
const RetentionSchedule = "0 3 * * *"

// RetentionWorker deletes audit log rows older than the retention window.
type RetentionWorker struct {
	audit     entity.AuditRepositoryInterface
	retention time.Duration
	log       logger.Logger
	now       func() time.Time
	cron      *cron.Cron
}

func NewRetentionWorker(audit entity.AuditRepositoryInterface, retentionDays int, log logger.Logger) *RetentionWorker {
	return &RetentionWorker{
		audit:     audit,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log,
		now:       time.Now,
		cron:      cron.New(),
	}
}

// Start schedules the purge and returns immediately. Stop waits for a
// running purge to finish.
func (w *RetentionWorker) Start() error {
	if _, err := w.cron.AddFunc(RetentionSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		w.Purge(ctx)
	}); err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("retention worker started", "schedule", RetentionSchedule, "retention", w.retention.String())
	return nil
}

func (w *RetentionWorker) Stop() {
	<-w.cron.Stop().Done()
}

// Purge removes expired audit rows and reports how many were deleted.
func (w *RetentionWorker) Purge(ctx context.Context) int64 {
	cutoff := w.now().UTC().Add(-w.retention)
	n, err := w.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("audit purge failed", "error", err)
		return 0
	}
	if n > 0 {
		w.log.Info("audit logs purged", "deleted", n, "cutoff", cutoff)
	}
	return n
}
