package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/store"
	"laundry-booking-backend/internal/usage"
)

// RoomMachineUsage handles GET /api/room-machine-usage?roomNumber=&machineId=&isActive=.
// isActive defaults to true.
func (h *Handler) RoomMachineUsage(c *gin.Context) {
	f := store.SessionFilter{
		RoomNumber: c.Query("roomNumber"),
		MachineID:  queryInt(c, "machineId", 0),
	}
	// Only active sessions unless isActive says otherwise.
	active := true
	if v, err := strconv.ParseBool(c.Query("isActive")); err == nil {
		active = v
	}
	f.Active = &active
	sessions, err := h.Usage.ListSessions(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// History handles GET /api/history?limit=&roomNumber=&machineId=.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.Usage.History(c.Request.Context(), usage.HistoryQuery{
		Limit:      int(queryInt(c, "limit", usage.DefaultHistoryLimit)),
		RoomNumber: c.Query("roomNumber"),
		MachineID:  queryInt(c, "machineId", 0),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Statistics handles GET /api/history/statistics.
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.Usage.Statistics(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
