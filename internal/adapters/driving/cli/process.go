package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	processBundleFlag string
	processInFlag     string
	processOutFlag    string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Unpack archives, composite overlays, embed metadata",
	Long: `Prepares downloaded files for upload: zip archives are unpacked and
their caption overlays composited onto the base media, then capture
timestamps and GPS coordinates are embedded into every file.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processBundleFlag, "bundle", "b", "snapchat_metadata.json", "bundle path")
	processCmd.Flags().StringVarP(&processInFlag, "dir", "d", "downloads", "download directory")
	processCmd.Flags().StringVarP(&processOutFlag, "out", "o", "processed", "output directory")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.NewProcessor == nil {
		return errors.New("process service not configured")
	}

	err := runWithProgress("Processing files", func(sink driven.ProgressSink) error {
		report, err := deps.NewProcessor(sink).ProcessAll(context.Background(), processBundleFlag, processInFlag, processOutFlag)
		if err != nil {
			return err
		}
		cmd.Printf("Processed: %d, skipped: %d, failed: %d\n",
			report.Processed, report.Skipped, report.Failed)
		return nil
	})
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	return nil
}
