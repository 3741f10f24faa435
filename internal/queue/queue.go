// Package queue keeps the per machine type waiting lists. Positions inside one type
// bucket are dense, start at 1 and follow join order; an "any" entry is eligible for
// every machine type but is numbered in its own bucket.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/event"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/store"
)

type JoinRequest struct {
	RoomNumber  string
	PhoneNumber string
	IPAddress   string
	MachineType model.MachineType
}

// LeaveRequest removes the entries held by IPAddress. An empty MachineType removes all of
// them, otherwise only those whose scope overlaps it. RoomNumber, when set, must match.
type LeaveRequest struct {
	IPAddress   string
	RoomNumber  string
	MachineType model.MachineType
}

type NextResult struct {
	Entry *model.QueueEntry  `json:"nextUser"`
	Queue []model.QueueEntry `json:"queue"`
}

// Manager is the only writer of queue entries. Every mutation runs under one lock and
// one transaction so position reads and writes never interleave.
type Manager struct {
	store  store.Store
	rooms  *rooms.Directory
	events event.Publisher
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithPublisher(p event.Publisher) Option {
	return func(m *Manager) { m.events = p }
}

func NewManager(st store.Store, directory *rooms.Directory, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{store: st, rooms: directory, log: log, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Join appends the caller to the bucket of the requested type ("any" when empty).
func (m *Manager) Join(ctx context.Context, req JoinRequest) (*model.QueueEntry, error) {
	room, err := parse.RoomNumber(req.RoomNumber)
	if err != nil {
		return nil, errs.Validation("Số phòng là bắt buộc (room is required)")
	}
	ip := parse.NormalizeIP(req.IPAddress)
	if ip == "" {
		return nil, errs.Validation("Địa chỉ IP là bắt buộc (IP address is required)")
	}
	phone, err := parse.PhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, errs.Validation("Số điện thoại không hợp lệ (invalid phone number)")
	}
	scope := req.MachineType
	if scope == "" {
		scope = model.MachineTypeAny
	}
	if !scope.IsQueueType() {
		return nil, errs.ErrInvalidMachineType
	}

	entry := &model.QueueEntry{
		RoomNumber:  room,
		PhoneNumber: phone,
		IPAddress:   ip,
		MachineType: scope,
	}

	m.mu.Lock()
	err = m.store.Transaction(ctx, func(tx store.Store) error {
		held, err := tx.FindQueueEntriesByIP(ctx, ip)
		if err != nil {
			return err
		}
		for _, e := range held {
			if e.MachineType.Overlaps(scope) {
				return errs.ErrAlreadyQueued
			}
		}
		last, err := tx.MaxQueuePosition(ctx, scope)
		if err != nil {
			return err
		}
		entry.Position = last + 1
		entry.JoinedAt = m.now().UTC()
		_, err = tx.CreateQueueEntry(ctx, entry)
		return err
	})
	m.mu.Unlock()
	if err != nil {
		return nil, classify(err, "join queue")
	}

	if _, err := m.rooms.Upsert(ctx, rooms.RoomInput{RoomNumber: room, PhoneNumber: phone, IPAddress: ip}); err != nil {
		m.log.Warn("room upsert failed after queue join", zap.String("room", room), zap.Error(err))
	}

	m.log.Info("joined queue",
		zap.String("room", room),
		zap.String("machine_type", string(scope)),
		zap.Int("position", entry.Position))
	m.publish(ctx, entryEvent(event.QueueJoined, entry))
	return entry, nil
}

// Leave removes the caller's entries and renumbers the buckets they were in.
func (m *Manager) Leave(ctx context.Context, req LeaveRequest) ([]model.QueueEntry, error) {
	ip := parse.NormalizeIP(req.IPAddress)
	if ip == "" {
		return nil, errs.Validation("Địa chỉ IP là bắt buộc (IP address is required)")
	}
	if req.MachineType != "" && !req.MachineType.IsQueueType() {
		return nil, errs.ErrInvalidMachineType
	}
	room := ""
	if req.RoomNumber != "" {
		var err error
		if room, err = parse.RoomNumber(req.RoomNumber); err != nil {
			return nil, errs.Validation("Số phòng không hợp lệ (invalid room number)")
		}
	}

	var removed []model.QueueEntry
	m.mu.Lock()
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		held, err := tx.FindQueueEntriesByIP(ctx, ip)
		if err != nil {
			return err
		}
		for _, e := range held {
			if req.MachineType == "" || e.MachineType.Overlaps(req.MachineType) {
				removed = append(removed, e)
			}
		}
		if len(removed) == 0 {
			return errs.ErrNotInQueue
		}
		for _, e := range removed {
			if room != "" && e.RoomNumber != room {
				return errs.ErrRoomMismatch
			}
		}
		return remove(ctx, tx, removed)
	})
	m.mu.Unlock()
	if err != nil {
		return nil, classify(err, "leave queue")
	}

	for i := range removed {
		m.log.Info("left queue",
			zap.String("room", removed[i].RoomNumber),
			zap.String("machine_type", string(removed[i].MachineType)))
		m.publish(ctx, entryEvent(event.QueueLeft, &removed[i]))
	}
	return removed, nil
}

// Next returns the earliest joined entry eligible for machineType, or nil when nobody
// waits. An empty machineType considers every entry.
func (m *Manager) Next(ctx context.Context, machineType model.MachineType) (*model.QueueEntry, error) {
	if err := validScope(machineType); err != nil {
		return nil, err
	}
	entry, err := next(ctx, m.store, machineType)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("next in queue: %w", err))
	}
	return entry, nil
}

// ProcessNext removes the entry Next would return and reports it with the queue that is
// left. Entry is nil when the queue is empty.
func (m *Manager) ProcessNext(ctx context.Context, machineType model.MachineType) (*NextResult, error) {
	if err := validScope(machineType); err != nil {
		return nil, err
	}

	var head *model.QueueEntry
	m.mu.Lock()
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if head, err = next(ctx, tx, machineType); err != nil || head == nil {
			return err
		}
		return remove(ctx, tx, []model.QueueEntry{*head})
	})
	m.mu.Unlock()
	if err != nil {
		return nil, classify(err, "process next in queue")
	}

	left, err := m.List(ctx, machineType)
	if err != nil {
		return nil, err
	}
	if head != nil {
		m.log.Info("dequeued, would notify room",
			zap.String("room", head.RoomNumber),
			zap.String("phone", head.PhoneNumber),
			zap.String("machine_type", string(head.MachineType)))
		m.publish(ctx, entryEvent(event.QueueDequeued, head))
	}
	return &NextResult{Entry: head, Queue: left}, nil
}

// List returns the entries eligible for machineType in join order, or every entry when
// machineType is empty or "any".
func (m *Manager) List(ctx context.Context, machineType model.MachineType) ([]model.QueueEntry, error) {
	if err := validScope(machineType); err != nil {
		return nil, err
	}
	entries, err := m.store.ListQueue(ctx, scopeTypes(machineType)...)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("list queue: %w", err))
	}
	return entries, nil
}

// Position returns the entries held by ip.
func (m *Manager) Position(ctx context.Context, ip string) ([]model.QueueEntry, error) {
	entries, err := m.store.FindQueueEntriesByIP(ctx, parse.NormalizeIP(ip))
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("queue position: %w", err))
	}
	return entries, nil
}

// Clear empties every bucket and returns the number of entries removed.
func (m *Manager) Clear(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.store.ClearQueue(ctx)
	if err != nil {
		return 0, errs.Internal(fmt.Errorf("clear queue: %w", err))
	}
	m.log.Info("queue cleared", zap.Int64("removed", res.RowsAffected))
	return res.RowsAffected, nil
}

func (m *Manager) publish(ctx context.Context, e event.Event) {
	if m.events != nil {
		m.events.Publish(ctx, e)
	}
}

func next(ctx context.Context, st store.Store, machineType model.MachineType) (*model.QueueEntry, error) {
	entries, err := st.ListQueue(ctx, scopeTypes(machineType)...)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// remove deletes entries and renumbers every bucket they belonged to.
func remove(ctx context.Context, tx store.Store, entries []model.QueueEntry) error {
	ids := make([]int64, 0, len(entries))
	buckets := make(map[model.MachineType]struct{})
	for _, e := range entries {
		ids = append(ids, e.ID)
		buckets[e.MachineType] = struct{}{}
	}
	if _, err := tx.DeleteQueueEntries(ctx, ids); err != nil {
		return err
	}
	for t := range buckets {
		if err := renumber(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

func renumber(ctx context.Context, tx store.Store, bucket model.MachineType) error {
	entries, err := tx.ListQueue(ctx, bucket)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.Position == i+1 {
			continue
		}
		if _, err := tx.SetQueuePosition(ctx, e.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}

// scopeTypes lists the buckets that can serve machineType.
func scopeTypes(machineType model.MachineType) []model.MachineType {
	if machineType == "" || machineType == model.MachineTypeAny {
		return nil
	}
	return []model.MachineType{machineType, model.MachineTypeAny}
}

func validScope(machineType model.MachineType) error {
	if machineType != "" && !machineType.IsQueueType() {
		return errs.ErrInvalidMachineType
	}
	return nil
}

func entryEvent(kind event.Kind, e *model.QueueEntry) event.Event {
	return event.Event{
		Kind:        kind,
		MachineType: e.MachineType,
		RoomNumber:  e.RoomNumber,
		PhoneNumber: e.PhoneNumber,
		IPAddress:   e.IPAddress,
		Position:    e.Position,
	}
}

func classify(err error, op string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Internal(fmt.Errorf("%s: %w", op, err))
}
