package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

const sqlitePrefix = "sqlite:"

// DefaultMachines is seeded when the configuration lists none.
var DefaultMachines = []config.MachineSeed{
	{Name: "Máy Giặt 1", Type: string(model.MachineTypeWashing)},
	{Name: "Máy Giặt 2", Type: string(model.MachineTypeWashing)},
	{Name: "Máy Sấy 1", Type: string(model.MachineTypeDrying)},
	{Name: "Máy Sấy 2", Type: string(model.MachineTypeDrying)},
}

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg.DSN), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel(cfg.LogLevel)),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info("running database migrations", zap.String("dialect", db.Dialector.Name()))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	n, err := MigrateLegacyMachines(context.Background(), store.NewGormStore(db))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Info("converted legacy combined machines to washing", zap.Int64("count", n))
	}

	log.Info("database initialization complete")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Machine{},
		&model.Room{},
		&model.UsageSession{},
		&model.HistoryEntry{},
		&model.QueueEntry{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// MigrateLegacyMachines rewrites machines of the retired "combined" type to "washing".
// It is idempotent and returns the number of rows changed.
func MigrateLegacyMachines(ctx context.Context, st store.Store) (int64, error) {
	res, err := st.MigrateMachineType(ctx, model.MachineTypeCombined, model.MachineTypeWashing)
	if err != nil {
		return 0, fmt.Errorf("migrate legacy machines: %w", err)
	}
	return res.RowsAffected, nil
}

// Seed inserts the given machines, or DefaultMachines when seeds is empty, if the machine
// table is empty. It returns the number of machines created.
func Seed(ctx context.Context, st store.Store, seeds []config.MachineSeed) (int64, error) {
	n, err := st.CountMachines(ctx)
	if err != nil {
		return 0, fmt.Errorf("count machines: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	if len(seeds) == 0 {
		seeds = DefaultMachines
	}

	machines := make([]model.Machine, 0, len(seeds))
	for _, s := range seeds {
		t := model.MachineType(strings.ToLower(strings.TrimSpace(s.Type)))
		if !t.IsMachineType() {
			return 0, fmt.Errorf("seed machine %q: invalid type %q", s.Name, s.Type)
		}
		machines = append(machines, model.Machine{
			Name:   s.Name,
			Type:   t,
			Status: model.StatusAvailable,
		})
	}

	res, err := st.CreateMachines(ctx, machines)
	if err != nil {
		return 0, fmt.Errorf("seed machines: %w", err)
	}
	return res.RowsAffected, nil
}

func dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	}
	return postgres.Open(dsn)
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
