package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.Uploader = (*UploadService)(nil)

// UploadService pushes processed files to the remote photo library with
// their capture timestamps attached.
type UploadService struct {
	bundles  driven.BundleStore
	library  driven.LibraryClient
	policy   domain.TimestampPolicy
	progress driven.ProgressSink
}

// NewUploadService creates an uploader. sink may be nil.
func NewUploadService(
	bundles driven.BundleStore,
	library driven.LibraryClient,
	policy domain.TimestampPolicy,
	sink driven.ProgressSink,
) *UploadService {
	if sink == nil {
		sink = driven.NopSink{}
	}
	return &UploadService{bundles: bundles, library: library, policy: policy, progress: sink}
}

// UploadAll uploads every processed media file, matching each back to its
// record for the capture timestamp. Files without a matching record are
// uploaded with their modification time rather than dropped.
func (s *UploadService) UploadAll(ctx context.Context, bundlePath, processedDir string) (*driving.UploadReport, error) {
	bundle, err := s.bundles.Load(ctx, bundlePath)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	index := BuildIndex(bundle)

	entries, err := os.ReadDir(processedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: processed dir %s", domain.ErrNotFound, processedDir)
		}
		return nil, fmt.Errorf("read processed dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".mp4", ".png":
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
	}
	sort.Strings(files)

	report := &driving.UploadReport{Total: len(files)}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path := filepath.Join(processedDir, name)
		createdAt := s.createdAtFor(index, path)

		err := s.library.UploadAsset(ctx, path, createdAt)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			report.Duplicates++
			s.emit(name, i, report.Total, "duplicate", "already in library")
		case err != nil:
			report.Failed++
			logger.Warn("upload %s: %v", name, err)
			s.emit(name, i, report.Total, "failed", err.Error())
		default:
			report.Uploaded++
			s.emit(name, i, report.Total, "ok", "")
		}
	}

	logger.Info("Uploaded %d, duplicates %d, failed %d of %d",
		report.Uploaded, report.Duplicates, report.Failed, report.Total)
	return report, nil
}

func (s *UploadService) emit(item string, i, total int, status, msg string) {
	s.progress.Emit(driven.ProgressEvent{
		Phase:   "upload",
		Item:    item,
		Index:   i + 1,
		Total:   total,
		Percent: percent(i+1, total),
		Status:  status,
		Message: msg,
	})
}

// createdAtFor resolves the upload timestamp: the matched record's capture
// time, else the file's modification time.
func (s *UploadService) createdAtFor(index *Index, path string) string {
	if rec, ok := index.Resolve(path); ok {
		return uploadTimestamp(s.policy.FormatRecord(rec.CapturedAt))
	}
	info, err := os.Stat(path)
	if err != nil {
		return uploadTimestamp(time.Now().UTC().Format("2006-01-02T15:04:05") + "Z")
	}
	return uploadTimestamp(info.ModTime().UTC().Format("2006-01-02T15:04:05") + "Z")
}

// uploadTimestamp pads a record timestamp to the millisecond precision the
// remote library expects.
func uploadTimestamp(ts string) string {
	if strings.Contains(ts, ".") {
		return ts
	}
	if strings.HasSuffix(ts, "Z") {
		return strings.TrimSuffix(ts, "Z") + ".000Z"
	}
	return ts + ".000"
}
