package model

import "time"

// QueueEntry is one room waiting for a machine of MachineType (or any machine).
// Positions inside one MachineType bucket are dense, start at 1 and follow join order.
type QueueEntry struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	RoomNumber  string      `gorm:"size:32;not null" json:"roomNumber"`
	PhoneNumber string      `gorm:"size:32;not null;default:''" json:"phoneNumber"`
	IPAddress   string      `gorm:"column:ip_address;size:64;not null;index" json:"ipAddress"`
	MachineType MachineType `gorm:"size:16;not null;index" json:"machineType"`
	Position    int         `gorm:"not null" json:"position"`
	JoinedAt    time.Time   `gorm:"not null" json:"joinedAt"`
	CreatedAt   time.Time   `json:"createdAt"`
}
