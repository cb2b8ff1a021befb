package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driving/web"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web dashboard",
	Long: `Starts a local web dashboard for driving the migration from a browser:
upload an export file, start import or repair jobs, and follow progress
live. The dashboard has no authentication and should stay on localhost.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (overrides SNAPBRIDGE_WEB_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Jobs == nil {
		return errors.New("dashboard not configured")
	}

	cfg, err := web.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading dashboard config: %w", err)
	}
	if serveAddrFlag != "" {
		cfg.Addr = serveAddrFlag
	}

	server := web.NewServer(cfg, &web.Deps{
		Jobs:          deps.Jobs,
		Config:        deps.Config,
		Bundles:       deps.Bundles,
		Extractor:     deps.Extractor,
		NewDownloader: deps.NewDownloader,
		NewProcessor:  deps.NewProcessor,
		NewUploader:   deps.NewUploader,
		NewReconciler: deps.NewReconciler,
		NewLibrary:    deps.NewLibrary,
	})

	cmd.Printf("Dashboard running on %s\n", cfg.Addr)
	return server.Listen()
}
