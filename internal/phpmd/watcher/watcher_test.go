package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/engine"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

func TestShouldIgnore(t *testing.T) {
	cfg := config.Default()
	cfg.Exclude = []string{"vendor/*"}
	w := &Watcher{root: "/p", config: cfg}

	assert.True(t, w.shouldIgnore("/p/vendor/lib/A.php"))
	assert.True(t, w.shouldIgnore("/p/.git"))
	assert.True(t, w.shouldIgnore("/p/.git/objects"))
	assert.True(t, w.shouldIgnore("/p/.phpmd/baseline.db"))
	assert.False(t, w.shouldIgnore("/p/src/A.php"))
}

func TestShouldIgnoreMatchesEngineGlobs(t *testing.T) {
	cfg := config.Default()
	cfg.Exclude = []string{"gen*", "tests/*.php"}
	w := &Watcher{root: "/p", config: cfg}

	assert.True(t, w.shouldIgnore("/p/generated"))
	assert.True(t, w.shouldIgnore("/p/generated/Proxy.php"))
	assert.True(t, w.shouldIgnore("/p/tests/OrderTest.php"))
	assert.False(t, w.shouldIgnore("/p/tests/fixtures"))
	assert.False(t, w.shouldIgnore("/p/src/Order.php"))

	for _, path := range []string{"/p/generated/Proxy.php", "/p/tests/OrderTest.php", "/p/tests/fixtures", "/p/src/Order.php"} {
		rel, err := filepath.Rel("/p", path)
		require.NoError(t, err)
		assert.Equal(t, engine.Excluded(cfg.Exclude, rel, path), w.shouldIgnore(path), path)
	}
}

func TestHandleEventFiltersSources(t *testing.T) {
	w := &Watcher{config: config.Default()}

	assert.True(t, w.handleEvent(fsnotify.Event{Name: "/p/src/A.php", Op: fsnotify.Write}))
	assert.True(t, w.handleEvent(fsnotify.Event{Name: "/p/src/B.PHP", Op: fsnotify.Remove}))
	assert.False(t, w.handleEvent(fsnotify.Event{Name: "/p/src/notes.md", Op: fsnotify.Write}))
	assert.False(t, w.handleEvent(fsnotify.Event{Name: "/p/src/A.php", Op: fsnotify.Chmod}))
}

func TestWatcherDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	var runs atomic.Int32
	results := make(chan *report.Report, 10)
	analyze := func(ctx context.Context) (*report.Report, error) {
		runs.Add(1)
		return report.New(), nil
	}

	w, err := NewWatcher(root, config.Default(), analyze, func(r *report.Report, err error) {
		results <- r
	})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "src", "A.php"), []byte("<?php // edit"), 0644))
	}

	select {
	case r := <-results:
		assert.NotNil(t, r)
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis after file change")
	}
	assert.Equal(t, int32(1), runs.Load())
}
