// Package usage runs the machine session lifecycle: starting and finishing sessions,
// writing history and reporting on it.
package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/event"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/store"
)

// Manager is the only writer of usage sessions and history entries.
type Manager struct {
	store    store.Store
	machines *registry.Registry
	rooms    *rooms.Directory
	events   event.Publisher
	log      *zap.Logger

	now          func() time.Time
	loc          *time.Location
	enforceOwner bool

	// One mutex per machine id. Machines are never deleted so entries are never evicted.
	locks sync.Map
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLocation sets the zone used to bucket statistics by day.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

// WithOwnerIPEnforcement controls whether only the starting IP may finish a session.
func WithOwnerIPEnforcement(on bool) Option {
	return func(m *Manager) { m.enforceOwner = on }
}

func WithPublisher(p event.Publisher) Option {
	return func(m *Manager) { m.events = p }
}

func NewManager(st store.Store, machines *registry.Registry, directory *rooms.Directory, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:        st,
		machines:     machines,
		rooms:        directory,
		log:          log,
		now:          time.Now,
		loc:          time.UTC,
		enforceOwner: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) lock(machineID int64) func() {
	v, _ := m.locks.LoadOrStore(machineID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (m *Manager) publish(ctx context.Context, e event.Event) {
	if m.events == nil {
		return
	}
	m.events.Publish(ctx, e)
}

func (m *Manager) clock() time.Time {
	return m.now().UTC()
}

// classify passes typed failures through and wraps everything else as internal.
func classify(err error, op string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Internal(fmt.Errorf("%s: %w", op, err))
}

// durationMinutes rounds the elapsed time to whole minutes and never goes below zero.
func durationMinutes(start, end time.Time) int {
	d := int(end.Sub(start).Round(time.Minute) / time.Minute)
	if d < 0 {
		return 0
	}
	return d
}

// roomFilter normalizes an optional room number filter the way writes store it.
func roomFilter(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	room, err := parse.RoomNumber(raw)
	if err != nil {
		return "", errs.Validation("Số phòng không hợp lệ (invalid room number)")
	}
	return room, nil
}
