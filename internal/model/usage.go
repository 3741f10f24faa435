package model

import (
	"time"
)

// UsageSession binds one room to one machine for one time window.
// At most one active session exists per machine.
type UsageSession struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	RoomNumber       string     `gorm:"size:32;not null;index" json:"roomNumber"`
	MachineID        int64      `gorm:"not null;index" json:"machineId"`
	IPAddress        string     `gorm:"column:ip_address;size:64;not null" json:"ipAddress"`
	PhoneNumber      string     `gorm:"size:32;not null;default:''" json:"phoneNumber"`
	Notes            string     `gorm:"size:512;not null;default:''" json:"notes"`
	StartTime        time.Time  `gorm:"not null" json:"startTime"`
	EstimatedEndTime time.Time  `gorm:"not null" json:"estimatedEndTime"`
	ActualEndTime    *time.Time `json:"actualEndTime"`
	IsActive         bool       `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// Associations
	Machine *Machine `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
}

// HistoryEntry is the immutable record of a completed session.
type HistoryEntry struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	MachineID       int64       `gorm:"not null;index" json:"machineId"`
	MachineType     MachineType `gorm:"size:16;not null" json:"machineType"`
	MachineName     string      `gorm:"size:128;not null" json:"machineName"`
	RoomNumber      string      `gorm:"size:32;not null;index" json:"roomNumber"`
	IPAddress       string      `gorm:"column:ip_address;size:64;not null" json:"ipAddress"`
	DurationMinutes int         `gorm:"not null;default:0" json:"durationMinutes"`
	Notes           string      `gorm:"size:512;not null;default:''" json:"notes"`
	StartTime       time.Time   `gorm:"not null" json:"startTime"`
	EndTime         time.Time   `gorm:"not null" json:"endTime"`
	CreatedAt       time.Time   `gorm:"index" json:"createdAt"`
}
