package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	repairBundleFlag string
	repairDryRunFlag bool
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile metadata on assets already in Immich",
	Long: `Matches every Immich asset back to its memory record and compares the
stored capture timestamp and GPS coordinates against the expected values.
Drifted assets are updated in place; --dry-run reports what would change
without touching the server.`,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringVarP(&repairBundleFlag, "bundle", "b", "snapchat_metadata.json", "bundle path")
	repairCmd.Flags().BoolVar(&repairDryRunFlag, "dry-run", false, "report drifted assets without updating them")
	repairCmd.Flags().StringVar(&immichURLFlag, "immich-url", "", "Immich server URL")
	repairCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Immich API key")
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.NewReconciler == nil {
		return errors.New("repair service not configured")
	}

	library, err := resolveLibrary()
	if err != nil {
		return err
	}

	if repairDryRunFlag {
		cmd.Println("Dry run: no assets will be updated.")
	}

	err = runWithProgress("Repairing Immich metadata", func(sink driven.ProgressSink) error {
		report, err := deps.NewReconciler(library, sink).Repair(context.Background(), repairBundleFlag, repairDryRunFlag)
		if err != nil {
			return err
		}
		cmd.Printf("Assets: %d, matched: %d, skipped: %d\n",
			report.TotalAssets, report.Checked, report.Skipped)
		if repairDryRunFlag {
			cmd.Printf("Needs repair: %d (would repair %d)\n", report.NeedsRepair, report.WouldRepair)
		} else {
			cmd.Printf("Needs repair: %d, repaired: %d, failed: %d\n",
				report.NeedsRepair, report.Repaired, report.Failed)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}
	return nil
}
