package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coverbase/internal/platform/metrics"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []Event
	failAfter int // publish this many events, then fail; -1 never fails
}

func (p *fakePublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

var testMetrics = metrics.New()

func newTestWorker(store Store, publisher Publisher) *Worker {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewWorker(store, publisher, logger, testMetrics, time.Second)
}

func testEvent(t *testing.T, eventType string) Event {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"state": "quoted"})
	require.NoError(t, err)
	return NewEvent(AggregateTypePolicy, "1", eventType, payload, time.Now())
}

func TestDrainPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := &fakePublisher{failAfter: -1}
	worker := newTestWorker(store, publisher)

	require.NoError(t, store.Append(ctx, testEvent(t, EventPolicyCreated)))
	require.NoError(t, store.Append(ctx, testEvent(t, EventPolicyStateChanged)))

	require.NoError(t, worker.Drain(ctx))

	require.Len(t, publisher.published, 2)
	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDrainStopsAtFirstFailureAndRetries(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := &fakePublisher{failAfter: 1}
	worker := newTestWorker(store, publisher)

	first := testEvent(t, EventPolicyCreated)
	second := testEvent(t, EventPolicyStateChanged)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	require.NoError(t, worker.Drain(ctx))

	// Only the first event made it; the second stays pending.
	require.Len(t, publisher.published, 1)
	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)

	// Next tick succeeds and drains the rest.
	publisher.failAfter = -1
	require.NoError(t, worker.Drain(ctx))
	pending, err = store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDrainNoPendingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := &fakePublisher{failAfter: -1}
	worker := newTestWorker(store, publisher)

	require.NoError(t, worker.Drain(ctx))
	require.Empty(t, publisher.published)
}
