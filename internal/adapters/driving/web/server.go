// Package web serves the local migration dashboard: upload an export file,
// kick off phases as background jobs, and follow their progress over SSE.
// It binds to localhost by default and carries no authentication; it is a
// single-user tool, not a deployment target.
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Server is the dashboard HTTP server.
type Server struct {
	app     *fiber.App
	cfg     Config
	deps    *Deps
	watcher *exportWatcher
}

// NewServer builds the dashboard server and its routes.
func NewServer(cfg Config, deps *Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "snapbridge dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{app: app, cfg: cfg, deps: deps}

	app.Get("/", s.handleIndex)
	app.Post("/api/exports", s.handleExportUpload)
	app.Post("/api/jobs", s.handleStartJob)
	app.Get("/api/jobs", s.handleListJobs)
	app.Get("/api/jobs/:id", s.handleGetJob)
	app.Get("/api/jobs/:id/events", s.handleJobEvents)

	return s
}

// Listen starts the export watcher and serves until the listener fails.
func (s *Server) Listen() error {
	if s.cfg.WatchDir {
		watcher, err := newExportWatcher(s.cfg.ExportDir, s)
		if err != nil {
			logger.Warn("Export watcher disabled: %v", err)
		} else {
			s.watcher = watcher
			go watcher.run()
		}
	}

	logger.Info("Dashboard listening on %s", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops the server and the watcher.
func (s *Server) Shutdown() error {
	if s.watcher != nil {
		s.watcher.close()
	}
	return s.app.Shutdown()
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}

// handleExportUpload stores an uploaded export file and starts an extract
// job for it.
func (s *Server) handleExportUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".html" && ext != ".htm" && ext != ".json" {
		return fiber.NewError(fiber.StatusBadRequest, "export must be .html or .json")
	}

	dest := filepath.Join(s.cfg.ExportDir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, dest); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("saving export: %v", err))
	}

	jobID, err := s.startJob(jobExtract, dest, false)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job_id": jobID, "path": dest})
}

// startJobRequest is the POST /api/jobs body.
type startJobRequest struct {
	Kind   string `json:"kind"`
	Input  string `json:"input,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

func (s *Server) handleStartJob(c *fiber.Ctx) error {
	var req startJobRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Kind {
	case jobExtract:
		if req.Input == "" {
			return fiber.NewError(fiber.StatusBadRequest, "extract jobs need an input file")
		}
	case jobImport, jobRepair:
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown job kind %q", req.Kind))
	}

	jobID, err := s.startJob(req.Kind, req.Input, req.DryRun)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job_id": jobID})
}

// jobJSON is the wire shape of a job.
type jobJSON struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toJobJSON(job driven.Job) jobJSON {
	return jobJSON{
		ID:        job.ID,
		Kind:      job.Kind,
		State:     string(job.State),
		Detail:    job.Detail,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	jobs, err := s.deps.Jobs.ListJobs(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	out := make([]jobJSON, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobJSON(job))
	}
	return c.JSON(out)
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	job, err := s.deps.Jobs.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(toJobJSON(*job))
}

// handleJobEvents streams a job's progress log as server-sent events,
// replaying history first and then polling the store for new entries
// until the job reaches a terminal state.
func (s *Server) handleJobEvents(c *fiber.Ctx) error {
	jobID := c.Params("id")
	afterSeq := int64(c.QueryInt("after", 0))

	if _, err := s.deps.Jobs.GetJob(c.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	jobs := s.deps.Jobs
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx := context.Background()
		lastSeq := afterSeq

		for {
			events, err := jobs.ListEvents(ctx, jobID, lastSeq)
			if err != nil {
				logger.Warn("Streaming events for job %s: %v", jobID, err)
				return
			}

			for _, ev := range events {
				payload, err := json.Marshal(map[string]any{
					"seq":     ev.Seq,
					"phase":   ev.Event.Phase,
					"item":    ev.Event.Item,
					"index":   ev.Event.Index,
					"total":   ev.Event.Total,
					"percent": ev.Event.Percent,
					"status":  ev.Event.Status,
					"message": ev.Event.Message,
				})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.Seq, payload)
				lastSeq = ev.Seq
			}
			if err := w.Flush(); err != nil {
				// Client went away.
				return
			}

			job, err := jobs.GetJob(ctx, jobID)
			if err != nil {
				return
			}
			if job.State == driven.JobCompleted || job.State == driven.JobFailed {
				fmt.Fprintf(w, "event: done\ndata: %q\n\n", string(job.State))
				w.Flush()
				return
			}

			time.Sleep(500 * time.Millisecond)
		}
	})
	return nil
}
