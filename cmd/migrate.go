package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callcenter-console/backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

func init() {
	for _, c := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print applied and pending migrations"},
		{"reset", "Roll back every migration"},
	} {
		migrateCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE:  runMigrate,
		})
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.StoreDriver != "postgres" {
		return errors.New("migrate requires STORE_DRIVER=postgres")
	}
	if err := db.Migrate(context.Background(), cfg.DatabaseURL, cmd.Name()); err != nil {
		return fmt.Errorf("migrate %s: %w", cmd.Name(), err)
	}
	logger.Info().Str("command", cmd.Name()).Msg("migrate: ok")
	return nil
}
