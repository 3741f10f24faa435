package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/queue"
)

// queueRequest accepts both "room" and "roomNumber" for the room field.
type queueRequest struct {
	Room        string `json:"room"`
	RoomNumber  string `json:"roomNumber"`
	PhoneNumber string `json:"phoneNumber"`
	MachineType string `json:"machineType"`
}

func (r queueRequest) room() string {
	if r.RoomNumber != "" {
		return r.RoomNumber
	}
	return r.Room
}

// optionalType parses a machine type filter where empty means every bucket.
func optionalType(raw string) (model.MachineType, error) {
	if raw == "" {
		return "", nil
	}
	t, err := parse.MachineType(raw, true)
	if err != nil {
		return "", errs.ErrInvalidMachineType
	}
	return t, nil
}

// GetQueue handles GET /api/queue?machineType=. The caller's own entries are reported
// alongside the queue.
func (h *Handler) GetQueue(c *gin.Context) {
	t, err := optionalType(c.Query("machineType"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	entries, err := h.Queue.List(ctx, t)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ip := clientIP(c)
	mine, err := h.Queue.Position(ctx, ip)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"queue":     entries,
		"clientIP":  ip,
		"isInQueue": len(mine) > 0,
		"myEntries": mine,
	})
}

// JoinQueue handles POST /api/queue/join.
func (h *Handler) JoinQueue(c *gin.Context) {
	var req queueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.room() == "" {
		h.badRequest(c, "Số phòng là bắt buộc (room number is required)")
		return
	}
	t, err := parse.MachineType(req.MachineType, true)
	if err != nil {
		h.writeError(c, errs.ErrInvalidMachineType)
		return
	}
	ctx := c.Request.Context()
	entry, err := h.Queue.Join(ctx, queue.JoinRequest{
		RoomNumber:  req.room(),
		PhoneNumber: req.PhoneNumber,
		IPAddress:   clientIP(c),
		MachineType: t,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	entries, err := h.Queue.List(ctx, "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Đã tham gia hàng đợi (joined queue)",
		"position":  entry.Position,
		"queueItem": entry,
		"queue":     entries,
	})
}

// LeaveQueue handles POST /api/queue/leave. The body is optional.
func (h *Handler) LeaveQueue(c *gin.Context) {
	var req queueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Dữ liệu không hợp lệ (invalid request body)")
			return
		}
	}
	t, err := optionalType(req.MachineType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Queue.Leave(ctx, queue.LeaveRequest{
		IPAddress:   clientIP(c),
		RoomNumber:  req.room(),
		MachineType: t,
	}); err != nil {
		// Leaving without an entry is a bad request for this endpoint.
		if errors.Is(err, errs.ErrNotInQueue) {
			h.writeErrorStatus(c, http.StatusBadRequest, errs.ErrNotInQueue)
			return
		}
		h.writeError(c, err)
		return
	}
	entries, err := h.Queue.List(ctx, "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đã rời khỏi hàng đợi (left queue)",
		"queue":   entries,
	})
}

// NextInQueue handles POST /api/queue/next. The machine type comes from the body or the
// machineType query parameter.
func (h *Handler) NextInQueue(c *gin.Context) {
	var req queueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Dữ liệu không hợp lệ (invalid request body)")
			return
		}
	}
	raw := req.MachineType
	if raw == "" {
		raw = c.Query("machineType")
	}
	t, err := optionalType(raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.Queue.ProcessNext(c.Request.Context(), t)
	if err != nil {
		h.writeError(c, err)
		return
	}
	msg := "Hàng đợi trống (queue is empty)"
	if res.Entry != nil {
		msg = "Đã chuyển đến người tiếp theo (moved to next in queue)"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  msg,
		"nextUser": res.Entry,
		"queue":    res.Queue,
	})
}
