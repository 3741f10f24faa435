package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/parse"
	"laundry-booking-backend/internal/registry"
)

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.Machines.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// GetMachine handles GET /api/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.badRequest(c, "Mã máy không hợp lệ (invalid machine ID)")
		return
	}
	machine, err := h.Machines.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// UpdateMachine handles PUT /api/machines/:id. Only the fields present in the body change.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.badRequest(c, "Mã máy không hợp lệ (invalid machine ID)")
		return
	}
	var req registry.MachineUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Dữ liệu không hợp lệ (invalid request body)")
		return
	}
	machine, err := h.Machines.ApplyUpdate(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// ListAvailableMachines handles GET /api/machines/status/available?type=.
func (h *Handler) ListAvailableMachines(c *gin.Context) {
	t, err := parse.MachineType(c.Query("type"), true)
	if err != nil {
		h.writeError(c, errs.ErrInvalidMachineType)
		return
	}
	machines, err := h.Machines.ListAvailable(c.Request.Context(), t)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}
