package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete indexed transcripts older than the retention horizon",
	Long: `Runs one retention sweep now. Entries whose start time is older than
retention.horizon are deleted page by page. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Backfill missing timestamps on indexed transcripts",
	Long: `Walks the whole index and fills in missing dates and end times,
converting entries written with legacy clock-only timestamps.
Entries that cannot be repaired are reported and left unchanged.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(repairCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	if retentionService == nil {
		return errors.New("retention service not configured")
	}

	deleted, err := retentionService.Sweep(cmd.Context())
	cmd.Printf("Deleted %d stale entries.\n", deleted)
	if err != nil {
		return fmt.Errorf("sweep incomplete: %w", err)
	}
	return nil
}

func runRepair(cmd *cobra.Command, _ []string) error {
	if repairService == nil {
		return errors.New("repair service not configured")
	}

	updated, err := repairService.Repair(cmd.Context())
	cmd.Printf("Repaired %d entries.\n", updated)
	if err != nil {
		return fmt.Errorf("repair incomplete: %w", err)
	}
	return nil
}
