package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"laundry-booking-backend/config"
)

// mockPruner is a mock implementation of the Pruner interface.
type mockPruner struct {
	calls     atomic.Int32
	keepDays  atomic.Int32
	PruneFunc func() (int64, error)
}

func (m *mockPruner) PruneHistory(_ context.Context, keepDays int) (int64, error) {
	m.calls.Add(1)
	m.keepDays.Store(int32(keepDays))
	return m.PruneFunc()
}

func TestService_RunRepeats(t *testing.T) {
	pruner := &mockPruner{PruneFunc: func() (int64, error) { return 2, nil }}
	svc := NewService(config.RetentionConfig{Enabled: true, Interval: 10 * time.Millisecond, KeepDays: 30}, pruner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.EqualValues(t, 30, pruner.keepDays.Load())
}

func TestService_Disabled(t *testing.T) {
	pruner := &mockPruner{PruneFunc: func() (int64, error) { return 0, nil }}
	svc := NewService(config.RetentionConfig{Enabled: false, Interval: time.Millisecond, KeepDays: 30}, pruner, zap.NewNop())

	svc.Run(context.Background())
	assert.Zero(t, pruner.calls.Load())
}

func TestService_PruneOnceSurvivesErrors(t *testing.T) {
	pruner := &mockPruner{PruneFunc: func() (int64, error) { return 0, errors.New("db down") }}
	svc := NewService(config.RetentionConfig{Enabled: true, Interval: time.Hour, KeepDays: 90}, pruner, zap.NewNop())

	assert.Zero(t, svc.PruneOnce(context.Background()))
	assert.EqualValues(t, 1, pruner.calls.Load())
}
