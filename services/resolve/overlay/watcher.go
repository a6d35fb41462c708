// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of write events most editors and
// download tools emit for a single file.
const debounceWindow = 250 * time.Millisecond

// ApplyFunc receives the raw bytes of an overlay document and the path it
// came from. Errors are logged by the watcher and do not stop it.
type ApplyFunc func(ctx context.Context, data []byte, source string) error

// Watcher applies overlay documents dropped into a directory.
//
// Description:
//
//	Watches one directory (non-recursive) for .yaml/.yml/.json files.
//	A created or modified file is read after a short debounce and handed
//	to the ApplyFunc. Files that fail to read or apply are logged and
//	skipped; the watcher keeps running. Deletions and renames are ignored,
//	matching overlay semantics: removing the file does not un-apply it.
//
// Thread Safety: Run is single-goroutine; the ApplyFunc may be called from
// the watcher goroutine at any time between Run starting and returning.
type Watcher struct {
	dir    string
	apply  ApplyFunc
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a Watcher for the given directory.
//
// The directory must exist; the watch itself starts when Run is called.
func NewWatcher(dir string, apply ApplyFunc, logger *slog.Logger) (*Watcher, error) {
	if apply == nil {
		return nil, fmt.Errorf("overlay.NewWatcher: apply must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("overlay.NewWatcher: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("overlay.NewWatcher: %s is not a directory", dir)
	}

	return &Watcher{
		dir:    dir,
		apply:  apply,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}, nil
}

// Run watches the directory until ctx is canceled.
//
// Description:
//
//	Existing overlay files are applied once at startup, in lexical order,
//	before event processing begins, so a restart converges to the same
//	state as a service that saw the files arrive live.
//
// Outputs:
//
//	error - Non-nil when the underlying watch cannot be established or
//	        fails irrecoverably. Context cancellation returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("overlay.Watcher: creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("overlay.Watcher: watching %s: %w", w.dir, err)
	}

	w.applyExisting(ctx)
	w.logger.Info("Overlay directory watch started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("overlay.Watcher: event channel closed")
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !isOverlayFile(event.Name) {
				continue
			}
			w.scheduleApply(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("overlay.Watcher: error channel closed")
			}
			w.logger.Warn("Overlay watch error", "error", err)
		}
	}
}

// applyExisting applies overlay files already present in the directory.
func (w *Watcher) applyExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("Cannot list overlay directory", "dir", w.dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isOverlayFile(entry.Name()) {
			continue
		}
		w.applyFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// scheduleApply (re)arms the per-file debounce timer.
func (w *Watcher) scheduleApply(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.applyFile(ctx, path)
	})
}

// applyFile reads one overlay document and hands it to the ApplyFunc.
func (w *Watcher) applyFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Cannot read overlay file", "path", path, "error", err)
		return
	}
	if len(data) == 0 {
		// Some writers create the file before filling it; the write event
		// that follows will pick it up.
		return
	}

	if err := w.apply(ctx, data, path); err != nil {
		w.logger.Warn("Overlay file rejected", "path", path, "error", err)
		return
	}
	w.logger.Info("Overlay file applied", "path", path, "bytes", len(data))
}

// cancelTimers stops any pending debounce timers.
func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// isOverlayFile reports whether path names a document the watcher handles.
func isOverlayFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
