package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
)

var extractBundleFlag string

var extractCmd = &cobra.Command{
	Use:   "extract <export-file>",
	Short: "Parse a Memories export into a metadata bundle",
	Long: `Parses a Snapchat Memories export file (memories_history.html or
memories_history.json) into the metadata bundle the later phases consume.
The format is detected from the file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractBundleFlag, "bundle", "b", "snapchat_metadata.json", "bundle output path")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if deps == nil || deps.Extractor == nil {
		return errors.New("extract service not configured")
	}

	inputPath := args[0]
	format, err := detectFormat(inputPath)
	if err != nil {
		return err
	}

	cmd.Printf("Extracting metadata from %s...\n", inputPath)

	report, err := deps.Extractor.Extract(context.Background(), format, inputPath, extractBundleFlag)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	cmd.Printf("Extracted %d memories (%d images, %d videos)\n",
		report.Total, report.Images, report.Videos)
	cmd.Printf("With GPS: %d, without: %d\n", report.WithGPS, report.WithoutGPS)
	if report.FirstDate != "" {
		cmd.Printf("Date range: %s to %s\n", report.FirstDate, report.LastDate)
	}
	if len(report.ActiveDates) > 0 {
		cmd.Println("Most active dates:")
		for _, dc := range report.ActiveDates {
			cmd.Printf("  %s: %d memories\n", dc.Date, dc.Count)
		}
	}
	cmd.Printf("Bundle saved to %s\n", report.BundlePath)
	return nil
}

// detectFormat maps the export file extension to its schema.
func detectFormat(path string) (driving.SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return driving.FormatHTML, nil
	case ".json":
		return driving.FormatJSON, nil
	default:
		return "", fmt.Errorf("cannot detect export format from %q: expected .html or .json", filepath.Base(path))
	}
}
