package model

import "time"

// Room is a tenant unit. It is bound to one IP address at a time.
type Room struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	RoomNumber  string    `gorm:"size:32;uniqueIndex;not null" json:"roomNumber"`
	PhoneNumber string    `gorm:"size:32;not null;default:''" json:"phoneNumber"`
	IPAddress   string    `gorm:"column:ip_address;size:64;index;not null" json:"ipAddress"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
