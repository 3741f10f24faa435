// Package registry owns machine records: reads, partial updates and the occupancy
// transitions requested by the usage manager. It does not decide whether a transition
// is legal for the business; it only applies it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// MachineUpdate lists the fields an administrator may change. Nil fields are left alone.
type MachineUpdate struct {
	Name              *string              `json:"name"`
	Status            *model.MachineStatus `json:"status"`
	CurrentRoomNumber *string              `json:"currentRoomNumber"`
	CurrentUserIP     *string              `json:"currentUserIP"`
	CurrentNote       *string              `json:"currentNote"`
	StartTime         *time.Time           `json:"startTime"`
	EstimatedEndTime  *time.Time           `json:"estimatedEndTime"`
}

// Occupant is written onto a machine when a session starts.
type Occupant struct {
	RoomNumber       string
	IPAddress        string
	Note             string
	StartTime        time.Time
	EstimatedEndTime time.Time
}

type Registry struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Registry {
	return &Registry{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// WithStore returns a registry bound to st, typically a transaction.
func (r *Registry) WithStore(st store.Store) *Registry {
	return &Registry{store: st, now: r.now}
}

func (r *Registry) Get(ctx context.Context, id int64) (*model.Machine, error) {
	m, err := r.store.GetMachine(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.ErrMachineNotFound
	}
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("get machine %d: %w", id, err))
	}
	return m, nil
}

func (r *Registry) List(ctx context.Context) ([]model.Machine, error) {
	return r.list(ctx, store.MachineFilter{})
}

func (r *Registry) ListByType(ctx context.Context, t model.MachineType) ([]model.Machine, error) {
	if !t.IsMachineType() {
		return nil, errs.ErrInvalidMachineType
	}
	return r.list(ctx, store.MachineFilter{Type: t})
}

// ListAvailable returns available machines, of type t unless t is empty or "any".
func (r *Registry) ListAvailable(ctx context.Context, t model.MachineType) ([]model.Machine, error) {
	f := store.MachineFilter{Status: model.StatusAvailable}
	switch {
	case t == "" || t == model.MachineTypeAny:
	case t.IsMachineType():
		f.Type = t
	default:
		return nil, errs.ErrInvalidMachineType
	}
	return r.list(ctx, f)
}

func (r *Registry) list(ctx context.Context, f store.MachineFilter) ([]model.Machine, error) {
	machines, err := r.store.ListMachines(ctx, f)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("list machines: %w", err))
	}
	return machines, nil
}

// ApplyUpdate writes only the supplied fields, always refreshes updated_at and returns
// the stored record.
func (r *Registry) ApplyUpdate(ctx context.Context, id int64, u MachineUpdate) (*model.Machine, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, errs.ErrInvalidStatus
	}
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": r.now()}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.CurrentRoomNumber != nil {
		fields["current_room_number"] = *u.CurrentRoomNumber
	}
	if u.CurrentUserIP != nil {
		fields["current_user_ip"] = *u.CurrentUserIP
	}
	if u.CurrentNote != nil {
		fields["current_note"] = *u.CurrentNote
	}
	if u.StartTime != nil {
		fields["start_time"] = u.StartTime.UTC()
	}
	if u.EstimatedEndTime != nil {
		fields["estimated_end_time"] = u.EstimatedEndTime.UTC()
	}

	if _, err := r.store.UpdateMachine(ctx, id, fields); err != nil {
		return nil, errs.Internal(fmt.Errorf("update machine %d: %w", id, err))
	}
	return r.Get(ctx, id)
}

// Claim moves an available machine to in_use with occ as occupant. It fails with
// ErrMachineBusy when the machine is not available at the moment of the write.
func (r *Registry) Claim(ctx context.Context, id int64, occ Occupant) (*model.Machine, error) {
	res, err := r.store.ClaimMachine(ctx, id, map[string]any{
		"status":              model.StatusInUse,
		"current_room_number": occ.RoomNumber,
		"current_user_ip":     occ.IPAddress,
		"current_note":        occ.Note,
		"start_time":          occ.StartTime.UTC(),
		"estimated_end_time":  occ.EstimatedEndTime.UTC(),
		"updated_at":          r.now(),
	})
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("claim machine %d: %w", id, err))
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, errs.ErrMachineBusy
	}
	return r.Get(ctx, id)
}

// Release clears every occupant field and marks the machine available.
func (r *Registry) Release(ctx context.Context, id int64) (*model.Machine, error) {
	_, err := r.store.UpdateMachine(ctx, id, map[string]any{
		"status":              model.StatusAvailable,
		"current_room_number": "",
		"current_user_ip":     "",
		"current_note":        "",
		"start_time":          nil,
		"estimated_end_time":  nil,
		"updated_at":          r.now(),
	})
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("release machine %d: %w", id, err))
	}
	return r.Get(ctx, id)
}

// SetNote mirrors a session note onto the machine.
func (r *Registry) SetNote(ctx context.Context, id int64, note string) error {
	_, err := r.ApplyUpdate(ctx, id, MachineUpdate{CurrentNote: &note})
	return err
}
