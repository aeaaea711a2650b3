package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"
)

const defaultDebounce = 200 * time.Millisecond

func watchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, sources, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()
	if err := saveSources(ctx, c.App.Writer, sources); err != nil {
		return err
	}

	path := c.String("catalog")
	slog.Info("watching catalog", "path", path)
	return watchCatalog(ctx, path, c.Duration("debounce"), func() error {
		cat, err := loadCatalog(path)
		if err != nil {
			return err
		}
		sources, err := syncCatalog(ctx, engine, cat)
		if err != nil {
			return err
		}
		return saveSources(ctx, c.App.Writer, sources)
	})
}

// watchCatalog calls onChange once path has been quiet for debounce after
// a change. Calls never overlap; a change during a slow call runs once it
// returns. It returns when ctx ends. Errors from onChange are logged and
// watching continues.
func watchCatalog(ctx context.Context, path string, debounce time.Duration, onChange func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		wg      sync.WaitGroup
		reindex sync.Mutex
	)
	fire := func() {
		defer wg.Done()
		reindex.Lock()
		defer reindex.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := onChange(); err != nil {
			slog.Error("failed to reindex catalog", "path", abs, "error", err)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "error", err)
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !isContentChange(event.Op) {
				continue
			}
			slog.Debug("catalog changed", "op", event.Op.String())
			mu.Lock()
			if timer == nil || !timer.Stop() {
				wg.Add(1)
			}
			timer = time.AfterFunc(debounce, fire)
			mu.Unlock()
		}
	}
}

func isContentChange(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
