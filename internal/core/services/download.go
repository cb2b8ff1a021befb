package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// progressFileName tracks fetched URLs so an interrupted run resumes.
const progressFileName = ".download_progress.json"

// Ensure DownloadService implements the interface.
var _ driving.Downloader = (*DownloadService)(nil)

// DownloadService runs the bulk-download phase sequentially over a saved
// bundle. A single item's failure never aborts the batch.
type DownloadService struct {
	bundles  driven.BundleStore
	fetcher  driven.Fetcher
	progress driven.ProgressSink
}

// NewDownloadService creates a downloader. sink may be nil.
func NewDownloadService(bundles driven.BundleStore, fetcher driven.Fetcher, sink driven.ProgressSink) *DownloadService {
	if sink == nil {
		sink = driven.NopSink{}
	}
	return &DownloadService{bundles: bundles, fetcher: fetcher, progress: sink}
}

// DownloadAll fetches every record's media into downloadDir, records the
// on-disk name on each record, and re-saves the bundle.
func (s *DownloadService) DownloadAll(ctx context.Context, bundlePath, downloadDir string) (*driving.DownloadReport, error) {
	bundle, err := s.bundles.Load(ctx, bundlePath)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}

	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	done, err := loadProgress(filepath.Join(downloadDir, progressFileName))
	if err != nil {
		return nil, err
	}

	report := &driving.DownloadReport{Total: len(bundle.Records)}
	for i := range bundle.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec := &bundle.Records[i]

		if done.contains(rec.SourceURL) {
			report.Skipped++
			s.emit(rec, i, report.Total, "skipped", "already downloaded")
			continue
		}

		data, contentType, err := s.fetcher.Fetch(ctx, rec.SourceURL, rec.IsDirectRequest)
		if err != nil {
			report.Failed++
			logger.Warn("download %s: %v", rec.DerivedFilename, err)
			s.emit(rec, i, report.Total, "failed", err.Error())
			continue
		}

		filename := rec.DerivedFilename + extensionFor(contentType)
		if err := os.WriteFile(filepath.Join(downloadDir, filename), data, 0o644); err != nil {
			report.Failed++
			logger.Warn("write %s: %v", filename, err)
			s.emit(rec, i, report.Total, "failed", err.Error())
			continue
		}

		rec.DownloadedFile = filename
		report.Downloaded++
		if err := done.add(rec.SourceURL); err != nil {
			logger.Warn("save download progress: %v", err)
		}
		s.emit(rec, i, report.Total, "ok", "saved "+filename)
	}

	// Persist DownloadedFile refs so later phases can use the
	// authoritative lookup tier.
	if err := s.bundles.Save(ctx, bundle, bundlePath); err != nil {
		return report, fmt.Errorf("update bundle: %w", err)
	}

	logger.Info("Downloaded %d, skipped %d, failed %d of %d",
		report.Downloaded, report.Skipped, report.Failed, report.Total)
	return report, nil
}

func (s *DownloadService) emit(rec *domain.MemoryRecord, i, total int, status, msg string) {
	s.progress.Emit(driven.ProgressEvent{
		Phase:   "download",
		Item:    rec.DerivedFilename,
		Index:   i + 1,
		Total:   total,
		Percent: percent(i+1, total),
		Status:  status,
		Message: msg,
	})
}

func percent(i, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(i) / float64(total) * 100
}

// extensionFor maps a response content type onto an extension. Unknown
// types get .bin: the export wraps some media in zip archives served as
// application/octet-stream.
func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "video"):
		return ".mp4"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "image"):
		return ".jpg"
	default:
		return ".bin"
	}
}

// progressSet is the persisted URL set behind resume support.
type progressSet struct {
	path string
	urls map[string]struct{}
}

func loadProgress(path string) (*progressSet, error) {
	set := &progressSet{path: path, urls: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		// A corrupt progress file only costs re-downloads.
		logger.Warn("ignoring corrupt progress file %s: %v", path, err)
		return set, nil
	}
	for _, u := range urls {
		set.urls[u] = struct{}{}
	}
	return set, nil
}

func (p *progressSet) contains(url string) bool {
	_, ok := p.urls[url]
	return ok
}

func (p *progressSet) add(url string) error {
	p.urls[url] = struct{}{}
	urls := make([]string, 0, len(p.urls))
	for u := range p.urls {
		urls = append(urls, u)
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}
