// Package rooms maps room numbers to the IP address and phone that currently identify them.
package rooms

import (
	"context"
	"errors"
	"fmt"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/store"
)

// RoomInput is the data a room registers with. A nil IsActive means active.
type RoomInput struct {
	RoomNumber  string `json:"roomNumber"`
	PhoneNumber string `json:"phoneNumber"`
	IPAddress   string `json:"ipAddress"`
	IsActive    *bool  `json:"isActive"`
}

type Directory struct {
	store store.Store
}

func New(st store.Store) *Directory {
	return &Directory{store: st}
}

// GetByNumber looks the room up by its normalized number, so spacing differences match.
func (d *Directory) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	number, err := parse.RoomNumber(roomNumber)
	if err != nil {
		return nil, errs.ErrRoomNotFound
	}
	room, err := d.store.GetRoomByNumber(ctx, number)
	return found(room, err, "get room "+number)
}

// GetByIP returns the active room bound to ip.
func (d *Directory) GetByIP(ctx context.Context, ip string) (*model.Room, error) {
	room, err := d.store.GetRoomByIP(ctx, parse.NormalizeIP(ip))
	return found(room, err, "get room by ip "+ip)
}

func (d *Directory) List(ctx context.Context) ([]model.Room, error) {
	rooms, err := d.store.ListRooms(ctx)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("list rooms: %w", err))
	}
	return rooms, nil
}

// Upsert inserts the room or refreshes its phone, IP and active flag. An empty phone keeps
// the stored one. The IP is released from every other active room so one address maps to
// at most one active room.
func (d *Directory) Upsert(ctx context.Context, in RoomInput) (*model.Room, error) {
	number, err := parse.RoomNumber(in.RoomNumber)
	if err != nil {
		return nil, errs.Validation("Số phòng là bắt buộc (room number is required)")
	}
	ip := parse.NormalizeIP(in.IPAddress)
	if ip == "" {
		return nil, errs.Validation("Địa chỉ IP là bắt buộc (IP address is required)")
	}
	phone, err := parse.PhoneNumber(in.PhoneNumber)
	if err != nil {
		return nil, errs.Validation("Số điện thoại không hợp lệ (invalid phone number)")
	}
	active := in.IsActive == nil || *in.IsActive

	var saved *model.Room
	err = d.store.Transaction(ctx, func(tx store.Store) error {
		room, err := tx.GetRoomByNumber(ctx, number)
		switch {
		case errors.Is(err, store.ErrNotFound):
			room = &model.Room{RoomNumber: number}
		case err != nil:
			return err
		}

		changed := room.ID == 0 || room.IPAddress != ip || room.IsActive != active ||
			(phone != "" && room.PhoneNumber != phone)
		room.IPAddress = ip
		room.IsActive = active
		if phone != "" {
			room.PhoneNumber = phone
		}
		if changed {
			if _, err := tx.SaveRoom(ctx, room); err != nil {
				return err
			}
		}
		if active {
			if _, err := tx.DeactivateRoomsByIP(ctx, ip, number); err != nil {
				return err
			}
		}
		saved = room
		return nil
	})
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("upsert room %s: %w", number, err))
	}
	return saved, nil
}

func found(room *model.Room, err error, op string) (*model.Room, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("%s: %w", op, err))
	}
	return room, nil
}
