package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/usage"
)

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	list, err := h.Rooms.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetRoom handles GET /api/rooms/:roomNumber.
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Rooms.GetByNumber(c.Request.Context(), c.Param("roomNumber"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// UpsertRoom handles POST /api/rooms.
func (h *Handler) UpsertRoom(c *gin.Context) {
	var req rooms.RoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Số phòng và địa chỉ IP là bắt buộc (room number and IP address are required)")
		return
	}
	room, err := h.Rooms.Upsert(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

type startRequest struct {
	MachineID        int64      `json:"machineId"`
	EstimatedEndTime *time.Time `json:"estimatedEndTime"`
	Notes            string     `json:"notes"`
	PhoneNumber      string     `json:"phoneNumber"`
}

// StartWashing handles POST /api/rooms/:roomNumber/start-washing.
func (h *Handler) StartWashing(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MachineID <= 0 || req.EstimatedEndTime == nil {
		h.badRequest(c, "Mã máy và thời gian kết thúc dự kiến là bắt buộc (machine ID and estimated end time are required)")
		return
	}
	res, err := h.Usage.StartUsage(c.Request.Context(), usage.StartRequest{
		MachineID:        req.MachineID,
		RoomNumber:       c.Param("roomNumber"),
		IPAddress:        clientIP(c),
		EstimatedEndTime: *req.EstimatedEndTime,
		Notes:            req.Notes,
		PhoneNumber:      req.PhoneNumber,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"usageId": res.SessionID,
		"machine": res.Machine,
		"message": "Bắt đầu sử dụng máy thành công (machine usage started)",
	})
}

type machineRequest struct {
	MachineID int64  `json:"machineId"`
	Notes     string `json:"notes"`
}

// FinishWashing handles POST /api/rooms/:roomNumber/finish-washing. Only the address that
// started the session may finish it.
func (h *Handler) FinishWashing(c *gin.Context) {
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MachineID <= 0 {
		h.badRequest(c, "Mã máy là bắt buộc (machine ID is required)")
		return
	}
	res, err := h.Usage.FinishUsage(c.Request.Context(), usage.FinishRequest{
		MachineID:  req.MachineID,
		RoomNumber: c.Param("roomNumber"),
		CallerIP:   clientIP(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": res.History,
		"machine": res.Machine,
		"message": "Kết thúc sử dụng máy thành công (machine usage finished)",
	})
}

// UpdateNotes handles PUT /api/rooms/:roomNumber/update-notes.
func (h *Handler) UpdateNotes(c *gin.Context) {
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MachineID <= 0 {
		h.badRequest(c, "Mã máy là bắt buộc (machine ID is required)")
		return
	}
	if err := h.Usage.UpdateNotes(c.Request.Context(), req.MachineID, c.Param("roomNumber"), req.Notes); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã cập nhật ghi chú (notes updated)"})
}
