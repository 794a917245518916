package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"regdash/internal/amqp"
	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/services"
)

// Snapshotter builds a snapshot for criteria and hands it to a publisher.
type Snapshotter interface {
	PublishSnapshot(ctx context.Context, c core.Criteria, p services.SnapshotPublisher) (*amqp.MetricsSnapshotMessage, error)
}

// CriteriaFunc resolves the criteria of the next snapshot.
type CriteriaFunc func(ctx context.Context) (core.Criteria, error)

// SnapshotWorker publishes metrics snapshots on a fixed interval.
type SnapshotWorker struct {
	dash      Snapshotter
	publisher services.SnapshotPublisher
	criteria  CriteriaFunc
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

func NewSnapshotWorker(dash Snapshotter, publisher services.SnapshotPublisher, criteria CriteriaFunc, interval, timeout time.Duration, logger *slog.Logger) *SnapshotWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SnapshotWorker{
		dash:      dash,
		publisher: publisher,
		criteria:  criteria,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// PublishOnce builds and publishes a single snapshot.
func (w *SnapshotWorker) PublishOnce(ctx context.Context) (*amqp.MetricsSnapshotMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	c, err := w.criteria(ctx)
	if err != nil {
		w.failed.Add(1)
		return nil, fmt.Errorf("resolve criteria: %w", err)
	}
	msg, err := w.dash.PublishSnapshot(ctx, c, w.publisher)
	if err != nil {
		w.failed.Add(1)
		return nil, err
	}
	w.published.Add(1)
	return msg, nil
}

// Run publishes immediately and then on every tick until ctx is cancelled.
// Failed publishes are logged and retried on the next tick.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("snapshot interval must be positive, got %s", w.interval)
	}

	w.logger.InfoContext(ctx, "Snapshot worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if msg, err := w.PublishOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Snapshot publish failed",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		} else {
			w.logger.InfoContext(ctx, "Snapshot published",
				log.FieldOperation, log.OpPublish,
				log.FieldStart, msg.Start,
				log.FieldEnd, msg.End,
				log.FieldRows, msg.Rows)
		}

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Snapshot worker stopped",
				"published", w.published.Load(),
				"failed", w.failed.Load())
			return nil
		case <-ticker.C:
		}
	}
}

// Stats returns the number of successful and failed publishes.
func (w *SnapshotWorker) Stats() (published, failed int64) {
	return w.published.Load(), w.failed.Load()
}
