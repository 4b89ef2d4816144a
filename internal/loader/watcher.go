package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vpakspace/ontoguard-ai/internal/engine"
	"github.com/vpakspace/ontoguard-ai/pkg/logger"
	"github.com/vpakspace/ontoguard-ai/pkg/monitoring"
)

// Reloader rebuilds the compiled index from the fact document and swaps it
// into the shared snapshot. A failed rebuild keeps the previous index in
// force (fail-static): the engine never falls open because a reload broke.
type Reloader struct {
	path     string
	registry *engine.Registry
	snapshot *engine.Snapshot
	logger   *logger.Logger
}

// NewReloader creates a reloader bound to one fact document and snapshot
func NewReloader(path string, registry *engine.Registry, snapshot *engine.Snapshot, log *logger.Logger) *Reloader {
	return &Reloader{
		path:     path,
		registry: registry,
		snapshot: snapshot,
		logger:   log,
	}
}

// Reload re-reads the document, compiles a fresh index, and publishes it.
// Returns the rule count of the new index on success.
func (r *Reloader) Reload() (int, error) {
	start := time.Now()

	doc, err := LoadFile(r.path)
	if err != nil {
		monitoring.RecordCompile(time.Since(start), 0, err)
		r.logger.Reload(r.path, 0, err)
		return 0, err
	}

	idx, err := engine.Compile(doc.Facts, doc.Aliases, r.registry)
	if err != nil {
		monitoring.RecordCompile(time.Since(start), 0, err)
		r.logger.Reload(r.path, 0, err)
		return 0, err
	}

	r.snapshot.Swap(idx)
	monitoring.RecordCompile(time.Since(start), idx.RuleCount(), nil)
	r.logger.Reload(r.path, idx.RuleCount(), nil)
	return idx.RuleCount(), nil
}

// Watch re-runs Reload whenever the fact document changes on disk. The
// watch is on the parent directory because editors and atomic writers
// replace the file rather than writing it in place. Blocks until the
// context is cancelled.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(r.path)

	// Editors emit bursts of events per save; coalesce them.
	var debounce *time.Timer
	trigger := make(chan struct{}, 1)
	scheduleReload := func() {
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(200*time.Millisecond, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case <-trigger:
			// Reload failure already logged; previous index stays active.
			_, _ = r.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.WithComponent("loader").WithError(err).Warn("Watcher error")
		}
	}
}
