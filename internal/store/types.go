package store

import (
	"laundry-booking-backend/internal/model"
)

// Result is the normalized outcome of every write.
type Result struct {
	InsertedID   int64
	RowsAffected int64
}

// MachineFilter narrows a machine scan. Zero values match everything.
type MachineFilter struct {
	Type   model.MachineType
	Status model.MachineStatus
}

// SessionFilter narrows a usage session scan. A nil Active matches both states.
type SessionFilter struct {
	RoomNumber string
	MachineID  int64
	Active     *bool
}

// HistoryFilter narrows a history scan, newest first.
type HistoryFilter struct {
	RoomNumber string
	MachineID  int64
	Limit      int
}

// HistoryAggregate is one row of a grouped history aggregate. Key is empty for totals.
type HistoryAggregate struct {
	Key           string  `gorm:"column:group_key" json:"key,omitempty"`
	Count         int64   `json:"count"`
	AvgDuration   float64 `json:"avgDuration"`
	TotalDuration int64   `json:"totalDuration"`
}

// MachineStatusCount counts the machines of one type per status.
type MachineStatusCount struct {
	Type      model.MachineType `json:"type"`
	Total     int64             `json:"total"`
	Available int64             `json:"available"`
	InUse     int64             `json:"inUse"`
}

// QueueCount is the number of entries waiting in one type bucket.
type QueueCount struct {
	MachineType model.MachineType `json:"machineType"`
	Total       int64             `json:"total"`
}
