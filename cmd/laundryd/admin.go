package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/queue"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/usage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and convert legacy combined machines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		// Init runs both passes; this reports anything the legacy pass still converts.
		n, err := db.MigrateLegacyMachines(cmd.Context(), a.store)
		if err != nil {
			return fmt.Errorf("migrate legacy machines: %w", err)
		}
		a.log.Info("schema up to date", zap.Int64("legacy_machines_converted", n))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the configured machines when the machine table is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		n, err := db.Seed(cmd.Context(), a.store, a.cfg.Machines)
		if err != nil {
			return err
		}
		a.log.Info("seed finished", zap.Int64("machines_created", n))
		return nil
	},
}

var keepDays int

var pruneCmd = &cobra.Command{
	Use:   "prune-history",
	Short: "Delete history entries older than --keep-days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		days := keepDays
		if days <= 0 {
			days = a.cfg.Retention.KeepDays
		}
		machines := registry.New(a.store)
		mgr := usage.NewManager(a.store, machines, rooms.New(a.store), a.log, usage.WithLocation(a.cfg.Location))
		n, err := mgr.PruneHistory(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d history entries older than %d days\n", n, days)
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "queue-clear",
	Short: "Remove every queue entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		n, err := queue.NewManager(a.store, rooms.New(a.store), a.log).Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d queue entries\n", n)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&keepDays, "keep-days", 0, "days of history to keep (defaults to retention.keep_days)")
}
