package notification

import (
	"context"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/event"
)

// LogNotifier records what would be sent. Phone and Zalo delivery are not wired up, so
// this is the only notifier that is always on.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, e event.Event) error {
	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.String("room", e.RoomNumber),
	}
	if e.MachineID != 0 {
		fields = append(fields, zap.Int64("machine_id", e.MachineID), zap.String("machine", e.MachineName))
	}

	switch e.Kind {
	case event.QueueNextInLine:
		if e.PhoneNumber == "" {
			n.log.Info("next in line has no phone, nobody to notify", fields...)
			return nil
		}
		n.log.Info("would send Zalo message: máy đã trống",
			append(fields, zap.String("phone", e.PhoneNumber))...)
	case event.QueueDequeued:
		n.log.Info("would call room that reached the head of the queue",
			append(fields, zap.String("phone", e.PhoneNumber))...)
	case event.MachineFinished:
		n.log.Info("machine session finished",
			append(fields, zap.Int("duration_minutes", e.DurationMinutes))...)
	default:
		n.log.Debug("lifecycle event", fields...)
	}
	return nil
}
