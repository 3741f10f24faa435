package store

import (
	"context"

	"laundry-booking-backend/internal/model"
)

// ListQueue returns the entries of the given type buckets (all buckets when none are given)
// in join order.
func (s *gormStore) ListQueue(ctx context.Context, types ...model.MachineType) ([]model.QueueEntry, error) {
	q := s.conn(ctx).Model(&model.QueueEntry{})
	if len(types) > 0 {
		q = q.Where("machine_type IN ?", types)
	}
	entries := make([]model.QueueEntry, 0)
	if err := q.Order("joined_at").Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormStore) FindQueueEntriesByIP(ctx context.Context, ip string) ([]model.QueueEntry, error) {
	entries := make([]model.QueueEntry, 0)
	err := s.conn(ctx).Where("ip_address = ?", ip).Order("joined_at").Order("id").Find(&entries).Error
	return entries, err
}

func (s *gormStore) MaxQueuePosition(ctx context.Context, machineType model.MachineType) (int, error) {
	var pos int
	err := s.conn(ctx).Model(&model.QueueEntry{}).
		Select("COALESCE(MAX(position), 0)").
		Where("machine_type = ?", machineType).
		Row().Scan(&pos)
	return pos, err
}

func (s *gormStore) CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) (Result, error) {
	res, err := result(s.conn(ctx).Create(entry))
	if err != nil {
		return res, err
	}
	res.InsertedID = entry.ID
	return res, nil
}

func (s *gormStore) DeleteQueueEntries(ctx context.Context, ids []int64) (Result, error) {
	if len(ids) == 0 {
		return Result{}, nil
	}
	return result(s.conn(ctx).Where("id IN ?", ids).Delete(&model.QueueEntry{}))
}

func (s *gormStore) SetQueuePosition(ctx context.Context, id int64, position int) (Result, error) {
	return result(s.conn(ctx).Model(&model.QueueEntry{}).Where("id = ?", id).Update("position", position))
}

func (s *gormStore) ClearQueue(ctx context.Context) (Result, error) {
	return result(s.conn(ctx).Where("1 = 1").Delete(&model.QueueEntry{}))
}

func (s *gormStore) QueueCounts(ctx context.Context) ([]QueueCount, error) {
	rows := make([]QueueCount, 0)
	err := s.conn(ctx).Model(&model.QueueEntry{}).
		Select("machine_type, COUNT(*) AS total").
		Group("machine_type").
		Order("machine_type").
		Scan(&rows).Error
	return rows, err
}
