package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"

	"laundry-booking-backend/internal/event"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per event, keyed by machine id so the events of one
// machine stay ordered within a partition. Queue events without a machine are keyed by room.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	addrs := make([]string, 0, len(brokers))
	for _, b := range brokers {
		b = strings.TrimSpace(b)
		if b == "" {
			return nil, fmt.Errorf("kafka notifier: empty broker address in %q", brokers)
		}
		addrs = append(addrs, b)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(e)),
		Value: payload,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(e.Kind)},
		},
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func messageKey(e event.Event) string {
	if e.MachineID != 0 {
		return strconv.FormatInt(e.MachineID, 10)
	}
	return "room:" + e.RoomNumber
}
