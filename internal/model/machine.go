package model

import "time"

// MachineType is the fixed kind of a machine. Queue entries additionally accept MachineTypeAny.
type MachineType string

const (
	MachineTypeWashing MachineType = "washing"
	MachineTypeDrying  MachineType = "drying"
	MachineTypeAny     MachineType = "any"

	// MachineTypeCombined only exists in old databases and is rewritten on startup.
	MachineTypeCombined MachineType = "combined"
)

// IsMachineType reports whether t can be assigned to a physical machine.
func (t MachineType) IsMachineType() bool {
	return t == MachineTypeWashing || t == MachineTypeDrying
}

// IsQueueType reports whether t can be requested by a queue entry.
func (t MachineType) IsQueueType() bool {
	return t.IsMachineType() || t == MachineTypeAny
}

// Overlaps reports whether two queue scopes can be satisfied by the same machine.
func (t MachineType) Overlaps(other MachineType) bool {
	return t == other || t == MachineTypeAny || other == MachineTypeAny
}

// MachineStatus is the current state of a machine.
type MachineStatus string

const (
	StatusAvailable   MachineStatus = "available"
	StatusInUse       MachineStatus = "in_use"
	StatusMaintenance MachineStatus = "maintenance"
)

// Valid reports whether s is a known status.
func (s MachineStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

// Machine is a physical washer or dryer.
// While Status is in_use the occupant fields and StartTime are set; while available they are empty.
type Machine struct {
	ID                int64         `gorm:"primaryKey" json:"id"`
	Name              string        `gorm:"size:128;not null" json:"name"`
	Type              MachineType   `gorm:"size:16;not null;index" json:"type"`
	Status            MachineStatus `gorm:"size:16;not null;default:available;index" json:"status"`
	CurrentRoomNumber string        `gorm:"size:32;not null;default:''" json:"currentRoomNumber"`
	CurrentUserIP     string        `gorm:"column:current_user_ip;size:64;not null;default:''" json:"currentUserIP"`
	CurrentNote       string        `gorm:"size:512;not null;default:''" json:"currentNote"`
	StartTime         *time.Time    `json:"startTime"`
	EstimatedEndTime  *time.Time    `json:"estimatedEndTime"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}
