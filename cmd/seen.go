package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/flipscout/flipscout/internal/seen"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Inspect and manage the seen-items store",
}

var seenInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the seen-items table (safe to run repeatedly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := seen.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "open seen store")
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate seen store")
		}
		fmt.Printf("seen store ready at %s\n", cfg.Store.Path)
		return nil
	},
}

var seenStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show seen-items count and newest first-seen timestamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := seen.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "open seen store")
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate seen store")
		}
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "seen store stats")
		}

		fmt.Printf("seen items: %d\n", stats.Total)
		if stats.NewestSeenAt != nil {
			fmt.Printf("newest first_seen_at: %s\n", stats.NewestSeenAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	seenCmd.AddCommand(seenInitCmd)
	seenCmd.AddCommand(seenStatsCmd)
	rootCmd.AddCommand(seenCmd)
}
