// Package watcher re-runs the analysis whenever a source file below the
// watched root changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/engine"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/log"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// DefaultDebounce is how long the watcher waits for further events before
// starting a new analysis.
const DefaultDebounce = 300 * time.Millisecond

// AnalyzeFunc runs one complete analysis and returns its report.
type AnalyzeFunc func(ctx context.Context) (*report.Report, error)

// ResultFunc receives the outcome of every analysis.
type ResultFunc func(r *report.Report, err error)

// Watcher monitors the filesystem for changes and triggers a new analysis.
// It uses fsnotify to detect file creation, modification, and deletion.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	config   *config.Config
	analyze  AnalyzeFunc
	onResult ResultFunc
	debounce time.Duration
}

// NewWatcher initializes a new Watcher for the specified root directory.
// It recursively adds all subdirectories to the watch list, excluding those ignored by config.
func NewWatcher(rootDir string, cfg *config.Config, analyze AnalyzeFunc, onResult ResultFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		root:     rootDir,
		config:   cfg,
		analyze:  analyze,
		onResult: onResult,
		debounce: DefaultDebounce,
	}

	// Add root recursively
	if err := w.addRecursive(rootDir); err != nil {
		fw.Close()
		return nil, err
	}

	return w, nil
}

// SetDebounce changes the quiet period before a re-analysis.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Start begins the event loop for monitoring file changes.
// It runs in a separate goroutine until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	go w.Run(ctx)
}

// Run processes events until ctx is done or the watcher is closed. Bursts
// of events within the debounce period produce a single analysis.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error: %v", err)
		case <-timer.C:
			w.run(ctx)
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	started := time.Now()
	r, err := w.analyze(ctx)
	if err != nil {
		log.Error("analysis failed: %v", err)
	} else {
		log.Info("re-analyzed in %s", time.Since(started))
	}
	if w.onResult != nil {
		w.onResult(r, err)
	}
}

// handleEvent reports whether event should trigger an analysis.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.shouldIgnore(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Warn("failed to watch %s: %v", event.Name, err)
			}
			return true
		}
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.isSource(event.Name) {
			log.Debug("changed: %s", event.Name)
			return true
		}
	}
	return false
}

func (w *Watcher) isSource(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, s := range w.config.Suffixes {
		if strings.ToLower(strings.TrimPrefix(s, ".")) == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != path && w.shouldIgnore(p) {
				return filepath.SkipDir
			}
			return w.watcher.Add(p)
		}
		return nil
	})
}

// shouldIgnore applies the same exclude matching as the engine, plus VCS
// metadata and the persistence dir at any depth.
func (w *Watcher) shouldIgnore(path string) bool {
	rel := path
	if w.root != "" {
		if r, err := filepath.Rel(w.root, path); err == nil {
			rel = r
		}
	}
	if engine.Excluded(w.config.Exclude, rel, path) {
		return true
	}
	persistence := filepath.Base(w.config.PersistenceDir)
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if engine.IsVCSDir(part) {
			return true
		}
		if persistence != "" && persistence != "." && part == persistence {
			return true
		}
	}
	return false
}
