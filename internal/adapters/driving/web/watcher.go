package web

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// settleDelay gives the OS time to finish writing a dropped-in export
// before an extract job reads it.
const settleDelay = 2 * time.Second

// exportWatcher starts an extract job whenever a new export file lands in
// the watched directory, so dropping memories_history.html into the folder
// is all a dashboard user has to do.
type exportWatcher struct {
	watcher *fsnotify.Watcher
	server  *Server

	mu   sync.Mutex
	seen map[string]time.Time
}

func newExportWatcher(dir string, server *Server) (*exportWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &exportWatcher{
		watcher: watcher,
		server:  server,
		seen:    make(map[string]time.Time),
	}, nil
}

func (w *exportWatcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isExportFile(event.Name) {
				continue
			}
			if !w.markSeen(event.Name) {
				continue
			}

			path := event.Name
			go func() {
				time.Sleep(settleDelay)
				logger.Info("New export detected: %s", path)
				if _, err := w.server.startJob(jobExtract, path, false); err != nil {
					logger.Warn("Auto-extract for %s: %v", path, err)
				}
			}()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Export watcher: %v", err)
		}
	}
}

// markSeen deduplicates the create/write event bursts a single file copy
// produces. Returns true the first time a path is seen within the window.
func (w *exportWatcher) markSeen(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if last, ok := w.seen[path]; ok && now.Sub(last) < 10*time.Second {
		return false
	}
	w.seen[path] = now
	return true
}

func (w *exportWatcher) close() {
	w.watcher.Close()
}

func isExportFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".json":
		return true
	default:
		return false
	}
}
