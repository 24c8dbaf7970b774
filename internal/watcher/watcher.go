// Package watcher reloads the model catalog when another process rewrites the
// registry directory, so long-running servers pick up externally registered
// models without a restart.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
	log "github.com/sirupsen/logrus"
)

// debounceDelay coalesces the create+rename burst an atomic catalog replace
// produces into a single reload.
const debounceDelay = 500 * time.Millisecond

// CatalogWatcher watches the registry directory for catalog rewrites and
// invalidates the serving engine's model cache after reloading.
type CatalogWatcher struct {
	dir     string
	catalog *registry.Catalog
	engine  *serving.Engine
	watcher *fsnotify.Watcher
}

// New constructs a watcher for the registry directory.
func New(dir string, catalog *registry.Catalog, engine *serving.Engine) (*CatalogWatcher, error) {
	fsWatcher, errNew := fsnotify.NewWatcher()
	if errNew != nil {
		return nil, errNew
	}
	if errAdd := fsWatcher.Add(dir); errAdd != nil {
		_ = fsWatcher.Close()
		return nil, errAdd
	}
	return &CatalogWatcher{dir: dir, catalog: catalog, engine: engine, watcher: fsWatcher}, nil
}

// Run processes file events until the context is cancelled.
func (w *CatalogWatcher) Run(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
	}()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != registry.CatalogFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(errWatch).Warn("watcher: catalog watch error")
		case <-timerC:
			timer = nil
			timerC = nil
			if errReload := w.catalog.Reload(); errReload != nil {
				log.WithError(errReload).Error("watcher: catalog reload failed")
				continue
			}
			w.engine.Invalidate()
			log.Info("watcher: catalog reloaded")
		}
	}
}
