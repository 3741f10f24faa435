package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health. It always answers 200 while the process is up and reports
// database reachability separately.
func (h *Handler) Health(c *gin.Context) {
	db := "ok"
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			db = "unavailable"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": db,
		"time":     time.Now().UTC(),
	})
}
