package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	// An empty list trusts no proxy, so gin uses the socket address.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(mw.RequestID(), mw.ClientIP(cfg.RequestIPHeader), mw.AccessLog(log), mw.Recovery(log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Only statistics are cached. Any successful write drops the cache.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.FlushOnWrite(cacheStore))
	{
		api.GET("/health", h.Health)

		// Machines
		api.GET("/machines", h.ListMachines)
		api.GET("/machines/status/available", h.ListAvailableMachines)
		api.GET("/machines/:id", h.GetMachine)
		api.PUT("/machines/:id", h.UpdateMachine)

		// Rooms and usage
		api.GET("/rooms", h.ListRooms)
		api.POST("/rooms", h.UpsertRoom)
		api.GET("/rooms/:roomNumber", h.GetRoom)
		api.POST("/rooms/:roomNumber/start-washing", h.StartWashing)
		api.POST("/rooms/:roomNumber/finish-washing", h.FinishWashing)
		api.PUT("/rooms/:roomNumber/update-notes", h.UpdateNotes)
		api.GET("/room-machine-usage", h.RoomMachineUsage)

		// History
		api.GET("/history", h.History)
		api.GET("/history/statistics", caching, h.Statistics)

		// Queue
		api.GET("/queue", h.GetQueue)
		api.POST("/queue/join", h.JoinQueue)
		api.POST("/queue/leave", h.LeaveQueue)
		api.POST("/queue/next", h.NextInQueue)
	}

	return r
}
