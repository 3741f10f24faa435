// Package event carries lifecycle notifications from the usage and queue managers
// to the handlers registered after a transition commits.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"laundry-booking-backend/internal/model"
)

// Kind names a lifecycle transition.
type Kind string

const (
	MachineStarted   Kind = "machine.started"
	MachineFinished  Kind = "machine.finished"
	MachineAvailable Kind = "machine.available"
	QueueJoined      Kind = "queue.joined"
	QueueLeft        Kind = "queue.left"
	QueueDequeued    Kind = "queue.dequeued"
	// QueueNextInLine announces who should be told that a machine is free.
	QueueNextInLine  Kind = "queue.next_in_line"
)

// Event is one committed transition.
type Event struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	At          time.Time         `json:"at"`
	MachineID   int64             `json:"machineId,omitempty"`
	MachineName string            `json:"machineName,omitempty"`
	MachineType model.MachineType `json:"machineType,omitempty"`
	RoomNumber  string            `json:"roomNumber,omitempty"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	IPAddress   string            `json:"ipAddress,omitempty"`
	Position    int               `json:"position,omitempty"`
	// DurationMinutes is set on machine.finished.
	DurationMinutes int `json:"durationMinutes,omitempty"`
}

// Handler reacts to an event. Errors are logged by the bus and never reach the caller
// of the operation that produced the event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// Publisher accepts events after a transition commits.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus invokes every subscribed handler, in subscription order, on the publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: log}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish stamps e with an id and time when missing and hands it to every handler.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, e); err != nil {
			b.log.Warn("event handler failed",
				zap.String("kind", string(e.Kind)),
				zap.String("event_id", e.ID),
				zap.Error(err))
		}
	}
}
