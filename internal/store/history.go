package store

import (
	"context"
	"time"

	"laundry-booking-backend/internal/model"
)

const historyAggregateColumns = "COUNT(*) AS count, " +
	"COALESCE(AVG(duration_minutes), 0) AS avg_duration, " +
	"COALESCE(SUM(duration_minutes), 0) AS total_duration"

func (s *gormStore) CreateHistory(ctx context.Context, entry *model.HistoryEntry) (Result, error) {
	res, err := result(s.conn(ctx).Create(entry))
	if err != nil {
		return res, err
	}
	res.InsertedID = entry.ID
	return res, nil
}

func (s *gormStore) ListHistory(ctx context.Context, f HistoryFilter) ([]model.HistoryEntry, error) {
	q := s.conn(ctx).Model(&model.HistoryEntry{})
	if f.RoomNumber != "" {
		q = q.Where("room_number = ?", f.RoomNumber)
	}
	if f.MachineID != 0 {
		q = q.Where("machine_id = ?", f.MachineID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	entries := make([]model.HistoryEntry, 0)
	if err := q.Order("end_time DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormStore) ListHistorySince(ctx context.Context, since time.Time) ([]model.HistoryEntry, error) {
	entries := make([]model.HistoryEntry, 0)
	err := s.conn(ctx).
		Where("end_time >= ?", since).
		Order("end_time").
		Find(&entries).Error
	return entries, err
}

func (s *gormStore) HistoryTotals(ctx context.Context) (HistoryAggregate, error) {
	var agg HistoryAggregate
	err := s.conn(ctx).Model(&model.HistoryEntry{}).
		Select(historyAggregateColumns).
		Scan(&agg).Error
	return agg, err
}

func (s *gormStore) HistoryByType(ctx context.Context) ([]HistoryAggregate, error) {
	rows := make([]HistoryAggregate, 0)
	err := s.conn(ctx).Model(&model.HistoryEntry{}).
		Select("machine_type AS group_key, " + historyAggregateColumns).
		Group("machine_type").
		Order("machine_type").
		Scan(&rows).Error
	return rows, err
}

func (s *gormStore) HistoryByRoom(ctx context.Context, limit int) ([]HistoryAggregate, error) {
	rows := make([]HistoryAggregate, 0)
	err := s.conn(ctx).Model(&model.HistoryEntry{}).
		Select("room_number AS group_key, " + historyAggregateColumns).
		Group("room_number").
		Order("count DESC").
		Order("room_number").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DeleteHistoryBefore removes entries created before cutoff.
func (s *gormStore) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (Result, error) {
	return result(s.conn(ctx).Where("created_at < ?", cutoff).Delete(&model.HistoryEntry{}))
}
