package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coverbase/internal/platform/metrics"
)

// Store is the subset of outbox persistence the worker needs.
type Store interface {
	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

// Publisher delivers a single event to the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const drainBatchSize = 100

// Worker drains pending outbox rows to the broker on an interval. Events that
// fail to publish stay pending and are retried on the next tick; ordering
// within a batch is preserved by stopping at the first failure.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
}

func NewWorker(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		interval:  interval,
	}
}

// Run drains until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending events and marks the delivered ones.
func (w *Worker) Drain(ctx context.Context) error {
	events, err := w.store.ListPending(ctx, drainBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.metrics.IncrementOutboxFailures()
			w.logger.WarnContext(ctx, "outbox publish failed",
				"event_id", event.ID,
				"event_type", event.EventType,
				"error", err,
			)
			break
		}
		w.metrics.IncrementOutboxPublished()
		published = append(published, event.ID)
	}

	if len(published) == 0 {
		return nil
	}
	return w.store.MarkPublished(ctx, published, time.Now())
}
