package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/callcenter-console/backend/internal/service"
)

var importMissCallsCmd = &cobra.Command{
	Use:   "import-misscalls <file.csv>",
	Short: "Replace the missed-call table with a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportMissCalls,
}

func runImportMissCalls(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	calls, errs := service.ParseMissedCallsCSV(f, loc)
	if len(errs) > 0 {
		return fmt.Errorf("csv: %s", strings.Join(errs, "; "))
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := &service.MissCallService{Store: store, BatchSize: cfg.ImportBatchSize, Logger: logger}
	summary, err := svc.Import(ctx, calls)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "parsed=%d deleted=%d inserted=%d batches=%d\n",
		summary.Parsed, summary.Deleted, summary.Inserted, summary.Batches)
	return nil
}
