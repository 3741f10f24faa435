package store

import (
	"context"
	"time"

	"laundry-booking-backend/internal/model"
)

func (s *gormStore) CreateSession(ctx context.Context, session *model.UsageSession) (Result, error) {
	res, err := result(s.conn(ctx).Omit("Machine").Create(session))
	if err != nil {
		return res, err
	}
	res.InsertedID = session.ID
	return res, nil
}

func (s *gormStore) FindActiveSession(ctx context.Context, machineID int64, roomNumber string) (*model.UsageSession, error) {
	var session model.UsageSession
	err := s.conn(ctx).
		Where("machine_id = ? AND room_number = ? AND is_active = ?", machineID, roomNumber, true).
		Order("id DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession marks an active session finished. RowsAffected is 0 if it was already closed.
func (s *gormStore) CloseSession(ctx context.Context, id int64, end time.Time) (Result, error) {
	return result(s.conn(ctx).Model(&model.UsageSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":       false,
			"actual_end_time": end,
			"updated_at":      end,
		}))
}

func (s *gormStore) UpdateSessionNotes(ctx context.Context, id int64, notes string) (Result, error) {
	return result(s.conn(ctx).Model(&model.UsageSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"notes": notes, "updated_at": time.Now().UTC()}))
}

func (s *gormStore) ListSessions(ctx context.Context, f SessionFilter) ([]model.UsageSession, error) {
	q := s.conn(ctx).Preload("Machine")
	if f.RoomNumber != "" {
		q = q.Where("room_number = ?", f.RoomNumber)
	}
	if f.MachineID != 0 {
		q = q.Where("machine_id = ?", f.MachineID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	sessions := make([]model.UsageSession, 0)
	if err := q.Order("start_time DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountActiveSessions counts active sessions for machineID, or for all machines when it is 0.
func (s *gormStore) CountActiveSessions(ctx context.Context, machineID int64) (int64, error) {
	q := s.conn(ctx).Model(&model.UsageSession{}).Where("is_active = ?", true)
	if machineID != 0 {
		q = q.Where("machine_id = ?", machineID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
