package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/api"
	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/event"
	"laundry-booking-backend/internal/notification"
	"laundry-booking-backend/internal/queue"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/retention"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.SeedOnStart {
		n, err := db.Seed(ctx, a.store, cfg.Machines)
		if err != nil {
			return fmt.Errorf("seed machines: %w", err)
		}
		if n > 0 {
			log.Info("seeded machines", zap.Int64("count", n))
		}
	}

	notifiers, closeNotifiers, err := buildNotifiers(cfg.Notification, log)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	pool := notification.NewWorkerPool(cfg.Notification.WorkerPoolSize, cfg.Notification.QueueSize, log, notifiers...)
	pool.Start(ctx)

	bus := event.NewBus(log)
	bus.Subscribe(pool)

	machines := registry.New(a.store)
	directory := rooms.New(a.store)
	queueMgr := queue.NewManager(a.store, directory, log, queue.WithPublisher(bus))
	bus.Subscribe(queue.NewWaker(queueMgr, bus, log))
	usageMgr := usage.NewManager(a.store, machines, directory, log,
		usage.WithLocation(cfg.Location),
		usage.WithOwnerIPEnforcement(cfg.Server.OwnerIPEnforced()),
		usage.WithPublisher(bus))

	// Prune old history in the background
	retentionSvc := retention.NewService(cfg.Retention, usageMgr, log)
	go retentionSvc.Run(ctx)

	gin.SetMode(cfg.Server.Mode)
	handler := api.NewHandler(api.Services{
		Machines: machines,
		Rooms:    directory,
		Usage:    usageMgr,
		Queue:    queueMgr,
		Ping: func(ctx context.Context) error {
			sqlDB, err := a.store.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, log, gin.Mode() == gin.DebugMode)
	router := api.NewRouter(handler, cfg.Server, log)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Cache"},
	}).Handler(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           corsHandler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutdown signal received, stopping services")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		cancel()
		pool.Wait()
		return err
	}

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
	}
	cancel()
	pool.Wait()

	log.Info("server gracefully stopped")
	return nil
}

type closingNotifier interface {
	notification.Notifier
	Close() error
}

var (
	openRedis = func(url, channel string) (closingNotifier, error) {
		return notification.NewRedisNotifier(url, channel)
	}
	openKafka = func(brokers []string, topic string) (closingNotifier, error) {
		return notification.NewKafkaNotifier(brokers, topic)
	}
)

// buildNotifiers always logs events and adds the Redis and Kafka publishers when they
// are configured. The returned func closes the broker connections. On error every
// publisher opened so far is closed.
func buildNotifiers(cfg config.NotificationConfig, log *zap.Logger) ([]notification.Notifier, func(), error) {
	notifiers := []notification.Notifier{notification.NewLogNotifier(log)}
	var opened []closingNotifier
	closeAll := func() {
		for _, n := range opened {
			if err := n.Close(); err != nil {
				log.Warn("closing notifier", zap.String("notifier", n.Name()), zap.Error(err))
			}
		}
	}

	if cfg.RedisURL != "" {
		rn, err := openRedis(cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return nil, nil, fmt.Errorf("redis notifier: %w", err)
		}
		opened = append(opened, rn)
		log.Info("publishing events to redis", zap.String("channel", cfg.RedisChannel))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kn, err := openKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("kafka notifier: %w", err)
		}
		opened = append(opened, kn)
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	for _, n := range opened {
		notifiers = append(notifiers, n)
	}
	return notifiers, closeAll, nil
}
