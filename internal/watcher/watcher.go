package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/source"
	"github.com/nguyentantai21042004/caption-doc/internal/subtitle"
)

type implWatcher struct {
	inputDir      string
	handler       EventHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	settle        time.Duration
	wg            sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]bool
}

// Start handles files already in the inbox, then every new one, until ctx is done.
// In-flight files finish before Start returns.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Inbox watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)

	defer func() {
		w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
		w.wg.Wait()
		w.logger.Info(ctx, "Inbox watcher stopped")
	}()

	if err := w.scanExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if err := w.dispatch(ctx, event.Name); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.dispatch(ctx, filepath.Join(w.inputDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// dispatch hands path to the handler on its own goroutine once a slot is free
func (w *implWatcher) dispatch(ctx context.Context, path string) error {
	if !isSupported(path) {
		w.logger.Debug(ctx, "Ignoring unsupported file: %s", path)
		return nil
	}
	if !w.claim(path) {
		return nil
	}

	w.logger.Info(ctx, "New file detected: %s", path)

	// Give the writer a moment to finish the file
	select {
	case <-time.After(w.settle):
	case <-ctx.Done():
		w.unclaim(path)
		return ctx.Err()
	}

	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		w.unclaim(path)
		return ctx.Err()
	}

	w.wg.Add(1)
	go func(filePath string) {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()
		defer w.unclaim(filePath)

		runCtx := logger.WithRunID(context.WithoutCancel(ctx))
		if err := w.handler(runCtx, filePath); err != nil {
			w.logger.Error(runCtx, "Failed to process %s: %v", filePath, err)
			return
		}
		w.archive(runCtx, filePath)
	}(path)

	return nil
}

// archive moves a handled file out of the inbox so it is not picked up again
func (w *implWatcher) archive(ctx context.Context, path string) {
	dir := filepath.Join(w.inputDir, ProcessedDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.logger.Warn(ctx, "Failed to create %s: %v", dir, err)
		return
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Warn(ctx, "Failed to archive %s: %v", path, err)
		return
	}
	w.logger.Debug(ctx, "Archived %s", dest)
}

func (w *implWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[path] {
		return false
	}
	w.inFlight[path] = true
	return true
}

func (w *implWatcher) unclaim(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}

// isSupported checks for a subtitle or media extension
func isSupported(path string) bool {
	return subtitle.IsSubtitleFile(path) || source.IsMediaFile(path)
}
