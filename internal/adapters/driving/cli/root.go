// Package cli implements the snapbridge command-line interface. Commands
// are thin: they parse flags, look up collaborators injected by the
// composition root, and print phase reports.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// version is set via ldflags at build time.
var version = "dev"

// Deps carries the collaborators the composition root constructs. Phase
// services that report per-item progress are built through factories so
// each command can pick its own progress sink (TUI or plain text).
type Deps struct {
	Config  driven.ConfigStore
	Bundles driven.BundleStore
	Policy  domain.TimestampPolicy
	Jobs    driven.JobStore

	Extractor     driving.Extractor
	NewDownloader func(sink driven.ProgressSink) driving.Downloader
	NewProcessor  func(sink driven.ProgressSink) driving.Processor
	NewUploader   func(library driven.LibraryClient, sink driven.ProgressSink) driving.Uploader
	NewReconciler func(library driven.LibraryClient, sink driven.ProgressSink) driving.Reconciler
	NewLibrary    func(serverURL, apiKey string) driven.LibraryClient
}

// deps holds the injected collaborators.
var deps *Deps

// SetDeps injects the collaborators before Execute.
func SetDeps(d *Deps) {
	deps = d
}

var (
	verboseFlag bool
	noTUIFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "snapbridge",
	Short: "Migrate Snapchat Memories exports into Immich",
	Long: `Snapbridge migrates a Snapchat Memories export into an Immich photo
library while preserving capture timestamps and GPS coordinates.

The migration runs in phases, each resumable on its own:

  extract   Parse the export file into a metadata bundle
  download  Fetch the media files behind the export links
  process   Unpack archives, composite overlays, embed metadata
  upload    Push processed files to the Immich server
  repair    Reconcile metadata on assets already in Immich
  serve     Run the local web dashboard`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noTUIFlag, "no-tui", false, "print plain progress lines instead of the progress bar")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
