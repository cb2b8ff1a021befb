package driving

import "context"

// SourceFormat identifies which export schema an input file uses.
type SourceFormat string

const (
	FormatHTML SourceFormat = "html"
	FormatJSON SourceFormat = "json"
)

// ExtractReport summarises one extraction run.
type ExtractReport struct {
	Total      int
	Images     int
	Videos     int
	WithGPS    int
	WithoutGPS int
	FirstDate  string
	LastDate   string
	// ActiveDates lists the busiest capture dates, most memories first.
	ActiveDates []DateCount
	BundlePath  string
}

// DateCount pairs a capture date (YYYY-MM-DD) with its memory count.
type DateCount struct {
	Date  string
	Count int
}

// Extractor runs the metadata-extraction phase: normalise an export file,
// derive identity, persist the bundle.
type Extractor interface {
	Extract(ctx context.Context, format SourceFormat, inputPath, bundlePath string) (*ExtractReport, error)
}

// DownloadReport aggregates per-item download outcomes.
type DownloadReport struct {
	Downloaded int
	Skipped    int
	Failed     int
	Total      int
}

// Downloader runs the bulk-download phase against a saved bundle.
type Downloader interface {
	DownloadAll(ctx context.Context, bundlePath, downloadDir string) (*DownloadReport, error)
}

// ProcessReport aggregates per-file processing outcomes.
type ProcessReport struct {
	Processed int
	Skipped   int
	Failed    int
}

// Processor runs the post-processing phase: archive extraction, overlay
// compositing, metadata embedding.
type Processor interface {
	ProcessAll(ctx context.Context, bundlePath, downloadDir, outputDir string) (*ProcessReport, error)
}

// UploadReport aggregates per-file upload outcomes.
type UploadReport struct {
	Uploaded   int
	Duplicates int
	Failed     int
	Total      int
}

// Uploader pushes processed files to the remote photo library.
type Uploader interface {
	UploadAll(ctx context.Context, bundlePath, processedDir string) (*UploadReport, error)
}

// RepairReport aggregates the reconciliation run. In dry-run mode Repaired
// stays zero and WouldRepair carries the decision count.
type RepairReport struct {
	TotalAssets int
	Checked     int
	Skipped     int
	NeedsRepair int
	Repaired    int
	WouldRepair int
	Failed      int
}

// Reconciler locates remote assets for bundle records, compares metadata
// within tolerance, and repairs what drifted.
type Reconciler interface {
	Repair(ctx context.Context, bundlePath string, dryRun bool) (*RepairReport, error)
}
