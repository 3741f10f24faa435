package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/mw"
	"laundry-booking-backend/internal/queue"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/usage"
)

// Services are the components the handlers call into.
type Services struct {
	Machines *registry.Registry
	Rooms    *rooms.Directory
	Usage    *usage.Manager
	Queue    *queue.Manager
	// Ping reports database reachability for /health. Optional.
	Ping func(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	Services
	log   *zap.Logger
	debug bool
}

// NewHandler creates a new API handler. In debug mode internal error details are
// included in responses.
func NewHandler(svc Services, log *zap.Logger, debug bool) *Handler {
	return &Handler{Services: svc, log: log, debug: debug}
}

var statusByKind = map[errs.Kind]int{
	errs.KindNotFound:   http.StatusNotFound,
	errs.KindConflict:   http.StatusBadRequest,
	errs.KindValidation: http.StatusBadRequest,
	errs.KindForbidden:  http.StatusForbidden,
	errs.KindInternal:   http.StatusInternalServerError,
}

// writeError maps err onto a status and the {"error","kind","code"} body.
func (h *Handler) writeError(c *gin.Context, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = errs.Internal(err)
	}
	status, ok := statusByKind[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	h.writeErrorStatus(c, status, e)
}

// writeErrorStatus writes e with an explicit status, for endpoints whose contract
// differs from the kind mapping.
func (h *Handler) writeErrorStatus(c *gin.Context, status int, e *errs.Error) {
	_ = c.Error(e)

	body := gin.H{"error": e.Message, "kind": e.Kind, "code": e.Code}
	if e.Kind == errs.KindInternal {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.Error(e))
		if h.debug {
			body["detail"] = e.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.writeError(c, errs.Validation(msg))
}

func clientIP(c *gin.Context) string {
	return mw.GetClientIP(c)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns the integer query parameter, or def when absent or malformed.
func queryInt(c *gin.Context, key string, def int64) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return def
	}
	return v
}
