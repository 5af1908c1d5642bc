package match

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cvlens/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CatalogueWatcher watches the catalogue file for changes and rebuilds the
// job index. The rebuild swaps in a new snapshot; in-flight queries keep
// using the one they loaded.
type CatalogueWatcher struct {
	mu sync.Mutex

	path          string
	index         *Index
	debounceDelay time.Duration
	debounceTimer *time.Timer

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}
	logger    *errors.Logger
	running   bool
}

// NewCatalogueWatcher creates a watcher for the catalogue file at path
func NewCatalogueWatcher(path string, index *Index, debounceDelay time.Duration, logger *errors.Logger) *CatalogueWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &CatalogueWatcher{
		path:          path,
		index:         index,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		logger:        logger,
	}
}

// Start begins watching the catalogue file
func (cw *CatalogueWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("catalogue watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	if err := watcher.Add(cw.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalogue file %s: %w", cw.path, err)
	}
	// Also watch the directory to catch atomic writes (rename operations)
	if err := watcher.Add(filepath.Dir(cw.path)); err != nil {
		cw.logger.Warn("Failed to watch catalogue directory for atomic writes",
			"directory", filepath.Dir(cw.path), "error", err)
	}

	cw.running = true
	go cw.watchLoop()

	cw.logger.Info("Catalogue file watcher started",
		"file", cw.path,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (cw *CatalogueWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	if err := cw.fsWatcher.Close(); err != nil {
		cw.logger.LogError(err, "Failed to close file system watcher")
		return err
	}

	cw.running = false
	cw.logger.Info("Catalogue file watcher stopped")
	return nil
}

// watchLoop is the main event loop for file watching
func (cw *CatalogueWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "Catalogue watcher error")
		case <-cw.stopChan:
			return
		}
	}
}

// handleEvent debounces file change events before triggering a rebuild
func (cw *CatalogueWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, cw.rebuild)
}

// rebuild reloads the catalogue file and rebuilds the index
func (cw *CatalogueWatcher) rebuild() {
	cw.logger.Info("Catalogue file changed, rebuilding job index", "file", cw.path)

	catalogue, err := LoadCatalogue(cw.path)
	if err != nil {
		cw.logger.LogError(err, "Failed to reload catalogue, keeping previous index", "file", cw.path)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := cw.index.Build(ctx, catalogue); err != nil {
		cw.logger.LogError(err, "Failed to rebuild job index, keeping previous index", "file", cw.path)
		return
	}

	cw.logger.Info("Job index rebuilt", "catalogue_size", len(catalogue))
}
