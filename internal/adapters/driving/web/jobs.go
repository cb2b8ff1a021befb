package web

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Job kinds the dashboard can start.
const (
	jobExtract = "extract"
	jobImport  = "import" // download + process + upload
	jobRepair  = "repair"
)

// Deps carries the collaborators the dashboard drives.
type Deps struct {
	Jobs    driven.JobStore
	Config  driven.ConfigStore
	Bundles driven.BundleStore

	Extractor     driving.Extractor
	NewDownloader func(sink driven.ProgressSink) driving.Downloader
	NewProcessor  func(sink driven.ProgressSink) driving.Processor
	NewUploader   func(library driven.LibraryClient, sink driven.ProgressSink) driving.Uploader
	NewReconciler func(library driven.LibraryClient, sink driven.ProgressSink) driving.Reconciler
	NewLibrary    func(serverURL, apiKey string) driven.LibraryClient
}

// jobSink writes progress events to the job store, so SSE consumers can
// replay them. Store failures are logged, never propagated: progress is a
// side channel.
type jobSink struct {
	jobs  driven.JobStore
	jobID string
}

var _ driven.ProgressSink = (*jobSink)(nil)

func (s *jobSink) Emit(event driven.ProgressEvent) {
	if err := s.jobs.AppendEvent(context.Background(), s.jobID, event); err != nil {
		logger.Warn("Recording progress for job %s: %v", s.jobID, err)
	}
}

// startJob registers a job and runs it in the background.
func (s *Server) startJob(kind, detail string, dryRun bool) (string, error) {
	id := uuid.NewString()
	job := driven.Job{
		ID:        id,
		Kind:      kind,
		State:     driven.JobPending,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.deps.Jobs.CreateJob(context.Background(), job); err != nil {
		return "", fmt.Errorf("creating job: %w", err)
	}

	go s.runJob(id, kind, detail, dryRun)
	return id, nil
}

func (s *Server) runJob(id, kind, detail string, dryRun bool) {
	ctx := context.Background()
	sink := &jobSink{jobs: s.deps.Jobs, jobID: id}

	if err := s.deps.Jobs.UpdateJobState(ctx, id, driven.JobRunning, detail); err != nil {
		logger.Warn("Marking job %s running: %v", id, err)
	}

	var err error
	switch kind {
	case jobExtract:
		err = s.runExtract(ctx, detail)
	case jobImport:
		err = s.runImport(ctx, sink)
	case jobRepair:
		err = s.runRepair(ctx, sink, dryRun)
	default:
		err = fmt.Errorf("unknown job kind %q", kind)
	}

	if err != nil {
		logger.Error("Job %s (%s) failed: %v", id, kind, err)
		if updateErr := s.deps.Jobs.UpdateJobState(ctx, id, driven.JobFailed, err.Error()); updateErr != nil {
			logger.Warn("Marking job %s failed: %v", id, updateErr)
		}
		return
	}

	if err := s.deps.Jobs.UpdateJobState(ctx, id, driven.JobCompleted, detail); err != nil {
		logger.Warn("Marking job %s completed: %v", id, err)
	}
}

func (s *Server) runExtract(ctx context.Context, inputPath string) error {
	format := driving.FormatJSON
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext == ".html" || ext == ".htm" {
		format = driving.FormatHTML
	}

	report, err := s.deps.Extractor.Extract(ctx, format, inputPath, s.cfg.BundlePath)
	if err != nil {
		return err
	}
	logger.Info("Dashboard extract: %d memories from %s", report.Total, inputPath)
	return nil
}

func (s *Server) runImport(ctx context.Context, sink driven.ProgressSink) error {
	if _, err := s.deps.NewDownloader(sink).DownloadAll(ctx, s.cfg.BundlePath, s.cfg.DownloadDir); err != nil {
		return fmt.Errorf("download phase: %w", err)
	}
	if _, err := s.deps.NewProcessor(sink).ProcessAll(ctx, s.cfg.BundlePath, s.cfg.DownloadDir, s.cfg.OutputDir); err != nil {
		return fmt.Errorf("process phase: %w", err)
	}

	library, err := s.library()
	if err != nil {
		return err
	}
	if _, err := s.deps.NewUploader(library, sink).UploadAll(ctx, s.cfg.BundlePath, s.cfg.OutputDir); err != nil {
		return fmt.Errorf("upload phase: %w", err)
	}
	return nil
}

func (s *Server) runRepair(ctx context.Context, sink driven.ProgressSink, dryRun bool) error {
	library, err := s.library()
	if err != nil {
		return err
	}
	_, err = s.deps.NewReconciler(library, sink).Repair(ctx, s.cfg.BundlePath, dryRun)
	return err
}

// library builds the Immich client from stored configuration. The dashboard
// has no interactive prompt, so both values must already be configured.
func (s *Server) library() (driven.LibraryClient, error) {
	serverURL := s.deps.Config.GetString("immich.url")
	apiKey := s.deps.Config.GetString("immich.api_key")
	if serverURL == "" || apiKey == "" {
		return nil, fmt.Errorf("immich.url and immich.api_key must be configured")
	}
	return s.deps.NewLibrary(serverURL, apiKey), nil
}
