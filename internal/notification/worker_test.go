package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"laundry-booking-backend/internal/event"
	"laundry-booking-backend/internal/model"
)

// mockNotifier is a mock implementation of the Notifier interface.
type mockNotifier struct {
	NotifyFunc func(ctx context.Context, e event.Event) error
}

func (m *mockNotifier) Name() string { return "mock" }

// Notify calls the mock NotifyFunc.
func (m *mockNotifier) Notify(ctx context.Context, e event.Event) error {
	return m.NotifyFunc(ctx, e)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, 1, zap.NewNop())

	// Dispatch a job
	require.NoError(t, wp.Handle(context.Background(), event.Event{Kind: event.MachineAvailable, MachineID: 123}))

	// Check if the job is in the channel
	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job.MachineID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	wp := NewWorkerPool(1, 1, zap.New(core))

	require.NoError(t, wp.Handle(context.Background(), event.Event{Kind: event.QueueJoined}))
	require.NoError(t, wp.Handle(context.Background(), event.Event{Kind: event.QueueLeft}))

	assert.Len(t, wp.Jobs(), 1)
	assert.Equal(t, 1, logs.FilterMessage("notification queue full, dropping event").Len())
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []event.Kind
	)
	ok := &mockNotifier{NotifyFunc: func(_ context.Context, e event.Event) error {
		mu.Lock()
		got = append(got, e.Kind)
		mu.Unlock()
		wg.Done()
		return nil
	}}
	failing := &mockNotifier{NotifyFunc: func(context.Context, event.Event) error {
		return errors.New("broker down")
	}}

	wp := NewWorkerPool(2, 8, zap.NewNop(), failing, ok)
	wp.Start(ctx)

	wg.Add(2)
	require.NoError(t, wp.Handle(ctx, event.Event{Kind: event.MachineFinished, MachineID: 1}))
	require.NoError(t, wp.Handle(ctx, event.Event{Kind: event.MachineAvailable, MachineID: 1}))
	wg.Wait()

	assert.ElementsMatch(t, []event.Kind{event.MachineFinished, event.MachineAvailable}, got,
		"a failing notifier does not stop the others")

	cancel()
	wp.Wait()
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, event.Event{Kind: event.QueueNextInLine, MachineID: 2, RoomNumber: "101", PhoneNumber: "0900000000"}))
	require.NoError(t, n.Notify(ctx, event.Event{Kind: event.QueueNextInLine, RoomNumber: "102"}))

	sent := logs.FilterMessage("would send Zalo message: máy đã trống").All()
	require.Len(t, sent, 1)
	assert.Equal(t, "0900000000", sent[0].ContextMap()["phone"])
	assert.Equal(t, 1, logs.FilterMessage("next in line has no phone, nobody to notify").Len())
}

type fakeRedis struct {
	channel string
	message interface{}
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisNotifier(t *testing.T) {
	fake := &fakeRedis{}
	n := &RedisNotifier{client: fake, channel: "laundry-events"}

	e := event.Event{ID: "e1", Kind: event.MachineStarted, MachineID: 4, MachineType: model.MachineTypeDrying, RoomNumber: "305"}
	require.NoError(t, n.Notify(context.Background(), e))
	assert.Equal(t, "laundry-events", fake.channel)

	var decoded event.Event
	require.NoError(t, json.Unmarshal(fake.message.([]byte), &decoded))
	assert.Equal(t, e.Kind, decoded.Kind)
	assert.Equal(t, e.RoomNumber, decoded.RoomNumber)

	fake.err = errors.New("connection refused")
	assert.Error(t, n.Notify(context.Background(), e))
}

func TestNewRedisNotifier(t *testing.T) {
	n, err := NewRedisNotifier("redis://localhost:6379/0", "c")
	require.NoError(t, err)
	assert.Equal(t, "redis", n.Name())
	require.NoError(t, n.Close())

	_, err = NewRedisNotifier("redis://localhost:6379/notanumber", "c")
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaNotifier(t *testing.T) {
	fake := &fakeWriter{}
	n := &KafkaNotifier{writer: fake}
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, event.Event{Kind: event.MachineAvailable, MachineID: 7}))
	require.NoError(t, n.Notify(ctx, event.Event{Kind: event.QueueJoined, RoomNumber: "101"}))

	require.Len(t, fake.msgs, 2)
	assert.Equal(t, "7", string(fake.msgs[0].Key))
	assert.Equal(t, "room:101", string(fake.msgs[1].Key))
	assert.Equal(t, "machine.available", string(fake.msgs[0].Headers[0].Value))

	_, err := NewKafkaNotifier(nil, "t")
	assert.Error(t, err)
	_, err = NewKafkaNotifier([]string{"k1:9092", " "}, "t")
	assert.Error(t, err)
}
