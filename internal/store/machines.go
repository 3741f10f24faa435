package store

import (
	"context"

	"laundry-booking-backend/internal/model"
)

func (s *gormStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	var m model.Machine
	if err := s.conn(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) ListMachines(ctx context.Context, f MachineFilter) ([]model.Machine, error) {
	q := s.conn(ctx).Model(&model.Machine{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	machines := make([]model.Machine, 0)
	if err := q.Order("type").Order("id").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (s *gormStore) CountMachines(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&model.Machine{}).Count(&n).Error
	return n, err
}

func (s *gormStore) CreateMachines(ctx context.Context, machines []model.Machine) (Result, error) {
	if len(machines) == 0 {
		return Result{}, nil
	}
	tx := s.conn(ctx).Create(&machines)
	res, err := result(tx)
	if err != nil {
		return res, err
	}
	res.InsertedID = machines[len(machines)-1].ID
	return res, nil
}

// UpdateMachine writes the given columns unconditionally.
func (s *gormStore) UpdateMachine(ctx context.Context, id int64, fields map[string]any) (Result, error) {
	return result(s.conn(ctx).Model(&model.Machine{}).Where("id = ?", id).Updates(fields))
}

// ClaimMachine writes the given columns only while the machine is available.
// RowsAffected is 0 when the machine is missing or already taken.
func (s *gormStore) ClaimMachine(ctx context.Context, id int64, fields map[string]any) (Result, error) {
	return result(s.conn(ctx).Model(&model.Machine{}).
		Where("id = ? AND status = ?", id, model.StatusAvailable).
		Updates(fields))
}

func (s *gormStore) MachineStatusCounts(ctx context.Context) ([]MachineStatusCount, error) {
	rows := make([]MachineStatusCount, 0)
	err := s.conn(ctx).Model(&model.Machine{}).
		Select("type, COUNT(*) AS total, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS available, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS in_use",
			model.StatusAvailable, model.StatusInUse).
		Group("type").
		Order("type").
		Scan(&rows).Error
	return rows, err
}

func (s *gormStore) MigrateMachineType(ctx context.Context, from, to model.MachineType) (Result, error) {
	return result(s.conn(ctx).Model(&model.Machine{}).Where("type = ?", from).Update("type", to))
}
