package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Ensure ProcessService implements the interface.
var _ driving.Processor = (*ProcessService)(nil)

// ProcessService runs the post-processing phase: unpack archived downloads,
// composite overlays, and embed capture metadata into each output file.
type ProcessService struct {
	bundles    driven.BundleStore
	images     driven.ImageTagger
	videos     driven.VideoTagger
	compositor driven.Compositor
	progress   driven.ProgressSink
}

// NewProcessService creates a processor. compositor and sink may be nil;
// without a compositor overlays are skipped and the base media kept.
func NewProcessService(
	bundles driven.BundleStore,
	images driven.ImageTagger,
	videos driven.VideoTagger,
	compositor driven.Compositor,
	sink driven.ProgressSink,
) *ProcessService {
	if sink == nil {
		sink = driven.NopSink{}
	}
	return &ProcessService{
		bundles:    bundles,
		images:     images,
		videos:     videos,
		compositor: compositor,
		progress:   sink,
	}
}

// processable lists the download extensions the processor understands.
func processable(ext string) bool {
	switch ext {
	case ".mp4", ".jpg", ".jpeg", ".png", ".bin":
		return true
	}
	return false
}

// ProcessAll processes every downloaded file in downloadDir into outputDir.
func (s *ProcessService) ProcessAll(ctx context.Context, bundlePath, downloadDir, outputDir string) (*driving.ProcessReport, error) {
	bundle, err := s.bundles.Load(ctx, bundlePath)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	index := BuildIndex(bundle)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tempDir := filepath.Join(outputDir, "temp_extraction")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: download dir %s", domain.ErrNotFound, downloadDir)
		}
		return nil, fmt.Errorf("read download dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && processable(strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	report := &driving.ProcessReport{}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, ok := index.Resolve(name)
		if !ok {
			report.Skipped++
			logger.Warn("%s: no matching record, skipping", name)
			s.emit(name, i, len(files), "skipped", "no matching record")
			continue
		}

		srcPath := filepath.Join(downloadDir, name)
		if err := s.processOne(ctx, srcPath, outputDir, tempDir, rec); err != nil {
			report.Failed++
			logger.Warn("%s: %v", name, err)
			s.emit(name, i, len(files), "failed", err.Error())
			continue
		}
		report.Processed++
		s.emit(name, i, len(files), "ok", "")
	}

	logger.Info("Processed %d, skipped %d, failed %d", report.Processed, report.Skipped, report.Failed)
	return report, nil
}

func (s *ProcessService) emit(item string, i, total int, status, msg string) {
	s.progress.Emit(driven.ProgressEvent{
		Phase:   "process",
		Item:    item,
		Index:   i + 1,
		Total:   total,
		Percent: percent(i+1, total),
		Status:  status,
		Message: msg,
	})
}

// processOne routes one downloaded file: archives are unpacked and
// composited, plain media is copied, then metadata is embedded.
func (s *ProcessService) processOne(ctx context.Context, srcPath, outputDir, tempDir string, rec *domain.MemoryRecord) error {
	ext := strings.ToLower(filepath.Ext(srcPath))
	if ext == ".bin" {
		return s.processArchive(ctx, srcPath, outputDir, tempDir, rec)
	}

	outPath := filepath.Join(outputDir, filepath.Base(srcPath))
	if err := copyFile(srcPath, outPath); err != nil {
		return fmt.Errorf("copy to output: %w", err)
	}
	return s.applyMetadata(ctx, outPath, rec)
}

// processArchive unpacks a .bin download (a zip holding the media plus an
// optional overlay), composites the overlay when present, and tags the
// result. The extraction dir is always removed.
func (s *ProcessService) processArchive(ctx context.Context, binPath, outputDir, tempDir string, rec *domain.MemoryRecord) error {
	extractDir := filepath.Join(tempDir, stem(binPath))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(extractDir)

	if err := extractZip(binPath, extractDir); err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}

	mediaPath, overlayPath, mediaType, err := findArchiveMedia(extractDir)
	if err != nil {
		return err
	}

	outExt := ".jpg"
	if mediaType == domain.MediaVideo {
		outExt = ".mp4"
	}
	outPath := filepath.Join(outputDir, stem(binPath)+outExt)

	if overlayPath != "" && s.compositor != nil {
		if err := s.compositor.Composite(ctx, mediaPath, overlayPath, outPath); err != nil {
			return fmt.Errorf("composite overlay: %w", err)
		}
	} else {
		if err := copyFile(mediaPath, outPath); err != nil {
			return fmt.Errorf("copy media: %w", err)
		}
	}

	return s.applyMetadata(ctx, outPath, rec)
}

// applyMetadata embeds timestamp/GPS via the format-specific tagger.
// Tagging failures degrade the output but do not fail the item: the media
// itself is already in place.
func (s *ProcessService) applyMetadata(ctx context.Context, path string, rec *domain.MemoryRecord) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		err = s.images.ApplyToImage(ctx, path, rec)
	case ".mp4":
		err = s.videos.ApplyToVideo(ctx, path, rec)
	}
	if err != nil {
		logger.Warn("embed metadata in %s: %v", filepath.Base(path), err)
	}
	return nil
}

// findArchiveMedia locates the primary media and overlay inside an
// extracted archive: first .mp4, else first .jpg/.jpeg, plus any .png whose
// name mentions "overlay".
func findArchiveMedia(dir string) (mediaPath, overlayPath string, mediaType domain.MediaType, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", "", fmt.Errorf("read extraction dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(dir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".mp4":
			if mediaPath == "" {
				mediaPath = path
				mediaType = domain.MediaVideo
			}
		case ".jpg", ".jpeg":
			if mediaPath == "" {
				mediaPath = path
				mediaType = domain.MediaImage
			}
		case ".png":
			if strings.Contains(strings.ToLower(name), "overlay") {
				overlayPath = path
			}
		}
	}

	if mediaPath == "" {
		return "", "", "", fmt.Errorf("%w: archive holds no media", domain.ErrInvalidInput)
	}
	return mediaPath, overlayPath, mediaType, nil
}

// extractZip unpacks an archive, rejecting entries that escape the target.
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, f := range reader.File {
		target := filepath.Join(destDir, filepath.Base(f.Name))
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
