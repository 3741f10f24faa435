package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/logging"
	"laundry-booking-backend/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "laundryd",
	Short:         "Laundry booking backend: machines, usage sessions and the waiting queue",
	Long:          `HTTP API server for shared laundry rooms. Commands: serve, migrate, seed, prune-history, queue-clear.`,
	RunE:          runServe, // default: same as "laundryd serve"
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(queueClearCmd)
}

// app bundles what every command needs.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store store.Store
	close func()
}

// bootstrap loads configuration, builds the logger and opens the migrated database.
func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("database initialized")

	return &app{
		cfg:   cfg,
		log:   log,
		store: store.NewGormStore(gormDB),
		close: func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = log.Sync()
		},
	}, nil
}
