package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const backlogTimeout = 5 * time.Second

// PendingCounter reports the size of the moderation queue.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int64, error)
}

// BacklogJob publishes the moderation backlog to a gauge.
type BacklogJob struct {
	counter PendingCounter
	gauge   prometheus.Gauge
	logger  *zap.Logger
	warnAt  int64
}

// NewBacklogJob creates a job that sets gauge to the pending count. A warning is logged
// whenever the backlog reaches warnAt; zero disables the warning.
func NewBacklogJob(counter PendingCounter, gauge prometheus.Gauge, warnAt int64, logger *zap.Logger) *BacklogJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacklogJob{
		counter: counter,
		gauge:   gauge,
		logger:  logger.Named("backlog-job"),
		warnAt:  warnAt,
	}
}

// Run implements cron.Job.
func (j *BacklogJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), backlogTimeout)
	defer cancel()

	if err := j.RunContext(ctx); err != nil {
		j.logger.Error("failed to refresh moderation backlog", zap.Error(err))
	}
}

func (j *BacklogJob) RunContext(ctx context.Context) error {
	n, err := j.counter.PendingCount(ctx)
	if err != nil {
		return err
	}

	j.gauge.Set(float64(n))

	if j.warnAt > 0 && n >= j.warnAt {
		j.logger.Warn("moderation backlog is high", zap.Int64("pending", n), zap.Int64("threshold", j.warnAt))
	} else {
		j.logger.Debug("moderation backlog refreshed", zap.Int64("pending", n))
	}
	return nil
}
