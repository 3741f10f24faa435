package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/event"
)

// Notifier delivers one lifecycle event to an outside party.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e event.Event) error
}

// WorkerPool manages a pool of workers that hand events to every notifier, off the
// request path.
type WorkerPool struct {
	size      int
	jobs      chan event.Event
	notifiers []Notifier
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. queueSize bounds the events waiting for a worker.
func NewWorkerPool(size, queueSize int, log *zap.Logger, notifiers ...Notifier) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:      size,
		jobs:      make(chan event.Event, queueSize), // Buffered channel
		notifiers: notifiers,
		log:       log,
	}
}

// Start launches the worker goroutines. They stop when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case e := <-wp.jobs:
			wp.deliver(ctx, e)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Handle queues e for delivery. A full queue drops the event rather than stall the
// operation that produced it.
func (wp *WorkerPool) Handle(_ context.Context, e event.Event) error {
	select {
	case wp.jobs <- e:
	default:
		wp.log.Warn("notification queue full, dropping event",
			zap.String("kind", string(e.Kind)),
			zap.String("event_id", e.ID))
	}
	return nil
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan event.Event {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, e event.Event) {
	for _, n := range wp.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			wp.log.Error("notification failed",
				zap.String("notifier", n.Name()),
				zap.String("kind", string(e.Kind)),
				zap.String("event_id", e.ID),
				zap.Error(err))
		}
	}
}
