package queue

import (
	"context"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/event"
)

// Waker looks up who is next in line whenever a machine becomes available and announces
// it. The entry stays queued until it is processed.
type Waker struct {
	queue  *Manager
	events event.Publisher
	log    *zap.Logger
}

func NewWaker(q *Manager, events event.Publisher, log *zap.Logger) *Waker {
	return &Waker{queue: q, events: events, log: log}
}

func (w *Waker) Handle(ctx context.Context, e event.Event) error {
	if e.Kind != event.MachineAvailable {
		return nil
	}
	head, err := w.queue.Next(ctx, e.MachineType)
	if err != nil {
		return err
	}
	if head == nil {
		return nil
	}

	w.log.Info("machine available, next in line",
		zap.Int64("machine_id", e.MachineID),
		zap.String("machine", e.MachineName),
		zap.String("room", head.RoomNumber),
		zap.Int("position", head.Position))
	if w.events != nil {
		w.events.Publish(ctx, event.Event{
			Kind:        event.QueueNextInLine,
			MachineID:   e.MachineID,
			MachineName: e.MachineName,
			MachineType: e.MachineType,
			RoomNumber:  head.RoomNumber,
			PhoneNumber: head.PhoneNumber,
			IPAddress:   head.IPAddress,
			Position:    head.Position,
		})
	}
	return nil
}
