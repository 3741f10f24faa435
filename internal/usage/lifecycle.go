package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/event"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/store"
)

type StartRequest struct {
	MachineID        int64
	RoomNumber       string
	IPAddress        string
	EstimatedEndTime time.Time
	Notes            string
	PhoneNumber      string
}

type StartResult struct {
	SessionID int64          `json:"usageId"`
	Machine   *model.Machine `json:"machine"`
}

// FinishRequest identifies the session to close. CallerIP, when set, must match the IP
// that started the session unless owner enforcement is off.
type FinishRequest struct {
	MachineID  int64
	RoomNumber string
	CallerIP   string
}

type FinishResult struct {
	History *model.HistoryEntry `json:"history"`
	Machine *model.Machine      `json:"machine"`
}

// StartUsage opens a session for the room on an available machine.
func (m *Manager) StartUsage(ctx context.Context, req StartRequest) (*StartResult, error) {
	room, err := parse.RoomNumber(req.RoomNumber)
	if err != nil {
		return nil, errs.Validation("Số phòng là bắt buộc (room number is required)")
	}
	if req.MachineID <= 0 {
		return nil, errs.Validation("Mã máy là bắt buộc (machine ID is required)")
	}
	ip := parse.NormalizeIP(req.IPAddress)
	if ip == "" {
		return nil, errs.Validation("Địa chỉ IP là bắt buộc (IP address is required)")
	}
	phone, err := parse.PhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, errs.Validation("Số điện thoại không hợp lệ (invalid phone number)")
	}
	start := m.clock()
	if req.EstimatedEndTime.IsZero() || !req.EstimatedEndTime.After(start) {
		return nil, errs.ErrInvalidTime
	}

	unlock := m.lock(req.MachineID)
	defer unlock()

	machine, err := m.machines.Get(ctx, req.MachineID)
	if err != nil {
		return nil, err
	}
	if machine.Status != model.StatusAvailable {
		return nil, errs.ErrMachineBusy
	}

	if _, err := m.rooms.Upsert(ctx, rooms.RoomInput{RoomNumber: room, PhoneNumber: phone, IPAddress: ip}); err != nil {
		m.log.Warn("room upsert failed, continuing with booking",
			zap.String("room", room), zap.String("ip", ip), zap.Error(err))
	}

	session := &model.UsageSession{
		RoomNumber:       room,
		MachineID:        req.MachineID,
		IPAddress:        ip,
		PhoneNumber:      phone,
		Notes:            req.Notes,
		StartTime:        start,
		EstimatedEndTime: req.EstimatedEndTime.UTC(),
		IsActive:         true,
	}
	err = m.store.Transaction(ctx, func(tx store.Store) error {
		// The status column alone can be reset by a manual machine update.
		active, err := tx.CountActiveSessions(ctx, req.MachineID)
		if err != nil {
			return err
		}
		if active > 0 {
			return errs.ErrMachineBusy
		}
		claimed, err := m.machines.WithStore(tx).Claim(ctx, req.MachineID, registry.Occupant{
			RoomNumber:       room,
			IPAddress:        ip,
			Note:             req.Notes,
			StartTime:        start,
			EstimatedEndTime: session.EstimatedEndTime,
		})
		if err != nil {
			return err
		}
		machine = claimed
		_, err = tx.CreateSession(ctx, session)
		return err
	})
	if err != nil {
		return nil, classify(err, "start usage")
	}

	m.log.Info("machine usage started",
		zap.Int64("machine_id", machine.ID),
		zap.String("room", room),
		zap.Int64("session_id", session.ID),
		zap.Time("estimated_end", session.EstimatedEndTime))
	m.publish(ctx, event.Event{
		Kind:        event.MachineStarted,
		At:          start,
		MachineID:   machine.ID,
		MachineName: machine.Name,
		MachineType: machine.Type,
		RoomNumber:  room,
		PhoneNumber: phone,
		IPAddress:   ip,
	})
	return &StartResult{SessionID: session.ID, Machine: machine}, nil
}

// FinishUsage closes the active session of the room on the machine, appends its history
// entry and frees the machine.
func (m *Manager) FinishUsage(ctx context.Context, req FinishRequest) (*FinishResult, error) {
	room, err := parse.RoomNumber(req.RoomNumber)
	if err != nil {
		return nil, errs.Validation("Số phòng là bắt buộc (room number is required)")
	}
	if req.MachineID <= 0 {
		return nil, errs.Validation("Mã máy là bắt buộc (machine ID is required)")
	}

	unlock := m.lock(req.MachineID)
	defer unlock()

	session, err := m.activeSession(ctx, req.MachineID, room)
	if err != nil {
		return nil, err
	}
	if req.CallerIP != "" && m.enforceOwner && parse.NormalizeIP(req.CallerIP) != session.IPAddress {
		return nil, errs.ErrNotSessionOwner
	}
	machine, err := m.machines.Get(ctx, req.MachineID)
	if err != nil {
		return nil, err
	}

	end := m.clock()
	entry := &model.HistoryEntry{
		MachineID:       machine.ID,
		MachineType:     machine.Type,
		MachineName:     machine.Name,
		RoomNumber:      room,
		IPAddress:       session.IPAddress,
		DurationMinutes: durationMinutes(session.StartTime, end),
		Notes:           session.Notes,
		StartTime:       session.StartTime,
		EndTime:         end,
	}
	err = m.store.Transaction(ctx, func(tx store.Store) error {
		res, err := tx.CloseSession(ctx, session.ID, end)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return errs.ErrNoActiveSession
		}
		if _, err := tx.CreateHistory(ctx, entry); err != nil {
			return err
		}
		released, err := m.machines.WithStore(tx).Release(ctx, machine.ID)
		if err != nil {
			return err
		}
		machine = released
		return nil
	})
	if err != nil {
		return nil, classify(err, "finish usage")
	}

	m.log.Info("machine usage finished",
		zap.Int64("machine_id", machine.ID),
		zap.String("room", room),
		zap.Int64("session_id", session.ID),
		zap.Int("duration_minutes", entry.DurationMinutes))
	base := event.Event{
		At:          end,
		MachineID:   machine.ID,
		MachineName: machine.Name,
		MachineType: machine.Type,
		RoomNumber:  room,
		PhoneNumber: session.PhoneNumber,
		IPAddress:   session.IPAddress,
	}
	finished := base
	finished.Kind = event.MachineFinished
	finished.DurationMinutes = entry.DurationMinutes
	m.publish(ctx, finished)
	available := base
	available.Kind = event.MachineAvailable
	m.publish(ctx, available)

	return &FinishResult{History: entry, Machine: machine}, nil
}

// UpdateNotes rewrites the note of the active session and mirrors it onto the machine.
func (m *Manager) UpdateNotes(ctx context.Context, machineID int64, roomNumber, notes string) error {
	room, err := parse.RoomNumber(roomNumber)
	if err != nil {
		return errs.Validation("Số phòng là bắt buộc (room number is required)")
	}
	if machineID <= 0 {
		return errs.Validation("Mã máy là bắt buộc (machine ID is required)")
	}

	unlock := m.lock(machineID)
	defer unlock()

	session, err := m.activeSession(ctx, machineID, room)
	if err != nil {
		return err
	}
	err = m.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.UpdateSessionNotes(ctx, session.ID, notes); err != nil {
			return err
		}
		return m.machines.WithStore(tx).SetNote(ctx, machineID, notes)
	})
	if err != nil {
		return classify(err, "update notes")
	}
	return nil
}

// ListSessions returns sessions matching f, newest first, with their machine attached.
func (m *Manager) ListSessions(ctx context.Context, f store.SessionFilter) ([]model.UsageSession, error) {
	room, err := roomFilter(f.RoomNumber)
	if err != nil {
		return nil, err
	}
	f.RoomNumber = room
	sessions, err := m.store.ListSessions(ctx, f)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("list sessions: %w", err))
	}
	return sessions, nil
}

func (m *Manager) activeSession(ctx context.Context, machineID int64, room string) (*model.UsageSession, error) {
	session, err := m.store.FindActiveSession(ctx, machineID, room)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.ErrNoActiveSession
	}
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("find active session: %w", err))
	}
	return session, nil
}
