package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	downloadBundleFlag string
	downloadDirFlag    string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the media files behind the export links",
	Long: `Downloads every memory in the bundle from Snapchat's servers.
Progress is checkpointed after each file, so an interrupted run resumes
where it stopped.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadBundleFlag, "bundle", "b", "snapchat_metadata.json", "bundle path")
	downloadCmd.Flags().StringVarP(&downloadDirFlag, "dir", "d", "downloads", "download directory")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.NewDownloader == nil {
		return errors.New("download service not configured")
	}

	err := runWithProgress("Downloading memories", func(sink driven.ProgressSink) error {
		report, err := deps.NewDownloader(sink).DownloadAll(context.Background(), downloadBundleFlag, downloadDirFlag)
		if err != nil {
			return err
		}
		cmd.Printf("Downloaded: %d, skipped: %d, failed: %d (of %d)\n",
			report.Downloaded, report.Skipped, report.Failed, report.Total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}
