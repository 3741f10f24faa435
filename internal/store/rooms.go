package store

import (
	"context"

	"laundry-booking-backend/internal/model"
)

func (s *gormStore) GetRoomByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	var r model.Room
	if err := s.conn(ctx).Where("room_number = ?", roomNumber).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoomByIP returns the active room currently bound to ip.
func (s *gormStore) GetRoomByIP(ctx context.Context, ip string) (*model.Room, error) {
	var r model.Room
	if err := s.conn(ctx).Where("ip_address = ? AND is_active = ?", ip, true).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms := make([]model.Room, 0)
	if err := s.conn(ctx).Order("room_number").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// SaveRoom inserts the room when ID is zero and updates every column otherwise.
func (s *gormStore) SaveRoom(ctx context.Context, room *model.Room) (Result, error) {
	res, err := result(s.conn(ctx).Save(room))
	if err != nil {
		return res, err
	}
	res.InsertedID = room.ID
	return res, nil
}

// DeactivateRoomsByIP releases ip from every active room except exceptRoom.
func (s *gormStore) DeactivateRoomsByIP(ctx context.Context, ip, exceptRoom string) (Result, error) {
	return result(s.conn(ctx).Model(&model.Room{}).
		Where("ip_address = ? AND room_number <> ? AND is_active = ?", ip, exceptRoom, true).
		Update("is_active", false))
}
