package main

import (
	"context"
	"fmt"
	"os"
	"time"

	configfile "github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/config/file"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/fetch"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/immich"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/media/exiftool"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/media/ffmpeg"
	storefile "github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/store/file"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/store/sqlite"
	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driving/cli"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/services"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
	"github.com/halcyon-labs/snapbridge-cli/internal/normalisers/snaphtml"
	"github.com/halcyon-labs/snapbridge-cli/internal/normalisers/snapjson"
)

func main() {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise config: %v\n", err)
		os.Exit(1)
	}

	policy := domain.PolicyByName(
		configStore.GetString("timezone.policy"),
		configStore.GetInt("timezone.offset_hours"),
	)

	bundles := storefile.NewBundleStore(policy)

	delay := time.Second
	if seconds := configStore.GetFloat("download.delay_seconds"); seconds > 0 {
		delay = time.Duration(seconds * float64(time.Second))
	}
	fetcher := fetch.NewFetcher(delay)

	jobs, err := sqlite.NewJobStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open job store: %v\n", err)
		os.Exit(1)
	}
	defer jobs.Close()

	videos := ffmpeg.NewTagger()
	compositor := ffmpeg.NewCompositor()

	extractor := services.NewExtractService(
		map[driving.SourceFormat]driven.Normaliser{
			driving.FormatHTML: snaphtml.New(policy),
			driving.FormatJSON: snapjson.New(policy),
		},
		bundles,
		policy,
	)

	cli.SetDeps(&cli.Deps{
		Config:    configStore,
		Bundles:   bundles,
		Policy:    policy,
		Jobs:      jobs,
		Extractor: extractor,
		NewDownloader: func(sink driven.ProgressSink) driving.Downloader {
			return services.NewDownloadService(bundles, fetcher, sink)
		},
		NewProcessor: func(sink driven.ProgressSink) driving.Processor {
			return services.NewProcessService(bundles, &lazyImageTagger{}, videos, compositor, sink)
		},
		NewUploader: func(library driven.LibraryClient, sink driven.ProgressSink) driving.Uploader {
			return services.NewUploadService(bundles, library, policy, sink)
		},
		NewReconciler: func(library driven.LibraryClient, sink driven.ProgressSink) driving.Reconciler {
			return services.NewReconcileService(bundles, library, policy, sink)
		},
		NewLibrary: func(serverURL, apiKey string) driven.LibraryClient {
			return immich.NewClient(serverURL, apiKey)
		},
	})

	cli.Execute()
}

// lazyImageTagger defers starting the exiftool process until an image
// actually needs tagging, so phases that never touch images work on
// machines without exiftool installed.
type lazyImageTagger struct {
	tagger *exiftool.Tagger
	err    error
}

var _ driven.ImageTagger = (*lazyImageTagger)(nil)

func (l *lazyImageTagger) ApplyToImage(ctx context.Context, path string, rec *domain.MemoryRecord) error {
	if l.tagger == nil && l.err == nil {
		l.tagger, l.err = exiftool.NewTagger()
		if l.err != nil {
			logger.Warn("exiftool unavailable, image metadata will be skipped: %v", l.err)
		}
	}
	if l.err != nil {
		return l.err
	}
	return l.tagger.ApplyToImage(ctx, path, rec)
}
