package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"laundry-booking-backend/internal/model"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = gorm.ErrRecordNotFound

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn against a Store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	ListMachines(ctx context.Context, f MachineFilter) ([]model.Machine, error)
	CountMachines(ctx context.Context) (int64, error)
	CreateMachines(ctx context.Context, machines []model.Machine) (Result, error)
	UpdateMachine(ctx context.Context, id int64, fields map[string]any) (Result, error)
	ClaimMachine(ctx context.Context, id int64, fields map[string]any) (Result, error)
	MachineStatusCounts(ctx context.Context) ([]MachineStatusCount, error)
	MigrateMachineType(ctx context.Context, from, to model.MachineType) (Result, error)

	GetRoomByNumber(ctx context.Context, roomNumber string) (*model.Room, error)
	GetRoomByIP(ctx context.Context, ip string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	SaveRoom(ctx context.Context, room *model.Room) (Result, error)
	DeactivateRoomsByIP(ctx context.Context, ip, exceptRoom string) (Result, error)

	CreateSession(ctx context.Context, session *model.UsageSession) (Result, error)
	FindActiveSession(ctx context.Context, machineID int64, roomNumber string) (*model.UsageSession, error)
	CloseSession(ctx context.Context, id int64, end time.Time) (Result, error)
	UpdateSessionNotes(ctx context.Context, id int64, notes string) (Result, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]model.UsageSession, error)
	CountActiveSessions(ctx context.Context, machineID int64) (int64, error)

	CreateHistory(ctx context.Context, entry *model.HistoryEntry) (Result, error)
	ListHistory(ctx context.Context, f HistoryFilter) ([]model.HistoryEntry, error)
	ListHistorySince(ctx context.Context, since time.Time) ([]model.HistoryEntry, error)
	HistoryTotals(ctx context.Context) (HistoryAggregate, error)
	HistoryByType(ctx context.Context) ([]HistoryAggregate, error)
	HistoryByRoom(ctx context.Context, limit int) ([]HistoryAggregate, error)
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (Result, error)

	ListQueue(ctx context.Context, types ...model.MachineType) ([]model.QueueEntry, error)
	FindQueueEntriesByIP(ctx context.Context, ip string) ([]model.QueueEntry, error)
	MaxQueuePosition(ctx context.Context, machineType model.MachineType) (int, error)
	CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) (Result, error)
	DeleteQueueEntries(ctx context.Context, ids []int64) (Result, error)
	SetQueuePosition(ctx context.Context, id int64, position int) (Result, error)
	ClearQueue(ctx context.Context) (Result, error)
	QueueCounts(ctx context.Context) ([]QueueCount, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func result(tx *gorm.DB) (Result, error) {
	if tx.Error != nil {
		return Result{}, tx.Error
	}
	return Result{RowsAffected: tx.RowsAffected}, nil
}
