package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	uploadBundleFlag string
	uploadDirFlag    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Push processed files to the Immich server",
	Long: `Uploads every processed file to Immich with its capture timestamp.
Files Immich already holds are counted as duplicates, not failures, so the
phase is safe to re-run.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadBundleFlag, "bundle", "b", "snapchat_metadata.json", "bundle path")
	uploadCmd.Flags().StringVarP(&uploadDirFlag, "dir", "d", "processed", "processed files directory")
	uploadCmd.Flags().StringVar(&immichURLFlag, "immich-url", "", "Immich server URL")
	uploadCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Immich API key")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.NewUploader == nil {
		return errors.New("upload service not configured")
	}

	library, err := resolveLibrary()
	if err != nil {
		return err
	}

	err = runWithProgress("Uploading to Immich", func(sink driven.ProgressSink) error {
		report, err := deps.NewUploader(library, sink).UploadAll(context.Background(), uploadBundleFlag, uploadDirFlag)
		if err != nil {
			return err
		}
		cmd.Printf("Uploaded: %d, duplicates: %d, failed: %d (of %d)\n",
			report.Uploaded, report.Duplicates, report.Failed, report.Total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
