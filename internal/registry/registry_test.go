package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
	"laundry-booking-backend/internal/store/storetest"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	st := storetest.New(t)
	_, err := st.CreateMachines(context.Background(), []model.Machine{
		{Name: "Máy Giặt 1", Type: model.MachineTypeWashing, Status: model.StatusAvailable},
		{Name: "Máy Sấy 1", Type: model.MachineTypeDrying, Status: model.StatusAvailable},
		{Name: "Máy Giặt 2", Type: model.MachineTypeWashing, Status: model.StatusMaintenance},
	})
	require.NoError(t, err)
	return New(st)
}

func TestRegistry_Reads(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	washers, err := r.ListByType(ctx, model.MachineTypeWashing)
	require.NoError(t, err)
	assert.Len(t, washers, 2)

	_, err = r.ListByType(ctx, model.MachineTypeAny)
	assert.ErrorIs(t, err, errs.ErrInvalidMachineType)

	testCases := []struct {
		name     string
		typ      model.MachineType
		expected int
		err      error
	}{
		{name: "all types", typ: "", expected: 2},
		{name: "any", typ: model.MachineTypeAny, expected: 2},
		{name: "washing only", typ: model.MachineTypeWashing, expected: 1},
		{name: "unknown type", typ: "ironing", err: errs.ErrInvalidMachineType},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			machines, err := r.ListAvailable(ctx, tc.typ)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, machines, tc.expected)
		})
	}

	_, err = r.Get(ctx, 99)
	assert.ErrorIs(t, err, errs.ErrMachineNotFound)
}

func TestRegistry_ApplyUpdate(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	before, err := r.Get(ctx, 3)
	require.NoError(t, err)

	status := model.StatusAvailable
	note := "đã sửa"
	m, err := r.ApplyUpdate(ctx, 3, MachineUpdate{Status: &status, CurrentNote: &note})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Equal(t, "đã sửa", m.CurrentNote)
	assert.Equal(t, "Máy Giặt 2", m.Name, "unsupplied fields are untouched")
	assert.False(t, m.UpdatedAt.Before(before.UpdatedAt))

	bad := model.MachineStatus("broken")
	_, err = r.ApplyUpdate(ctx, 3, MachineUpdate{Status: &bad})
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)

	_, err = r.ApplyUpdate(ctx, 42, MachineUpdate{CurrentNote: &note})
	assert.ErrorIs(t, err, errs.ErrMachineNotFound)
}

func TestRegistry_ClaimAndRelease(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	occ := Occupant{RoomNumber: "101", IPAddress: "10.0.0.5", StartTime: now, EstimatedEndTime: now.Add(30 * time.Minute)}
	m, err := r.Claim(ctx, 1, occ)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInUse, m.Status)
	assert.Equal(t, "101", m.CurrentRoomNumber)
	assert.Equal(t, "10.0.0.5", m.CurrentUserIP)
	require.NotNil(t, m.StartTime)

	_, err = r.Claim(ctx, 1, occ)
	assert.ErrorIs(t, err, errs.ErrMachineBusy)
	_, err = r.Claim(ctx, 3, occ)
	assert.ErrorIs(t, err, errs.ErrMachineBusy, "maintenance machines cannot be claimed")
	_, err = r.Claim(ctx, 99, occ)
	assert.ErrorIs(t, err, errs.ErrMachineNotFound)

	m, err = r.Release(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Empty(t, m.CurrentRoomNumber)
	assert.Empty(t, m.CurrentUserIP)
	assert.Nil(t, m.StartTime)
	assert.Nil(t, m.EstimatedEndTime)
}

func TestRegistry_WithStore(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	err := r.store.Transaction(ctx, func(tx store.Store) error {
		_, err := r.WithStore(tx).Claim(ctx, 2, Occupant{RoomNumber: "202", IPAddress: "10.0.0.9", StartTime: time.Now(), EstimatedEndTime: time.Now().Add(time.Hour)})
		return err
	})
	require.NoError(t, err)

	m, err := r.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInUse, m.Status)
}
