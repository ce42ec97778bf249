// Package watcher triggers re-analysis when the component-model snapshot
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tandberg/decycle/pkg/logging"
)

// ChangeEvent represents a batch of snapshot changes
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// SnapshotWatcher watches the component-model snapshot file. The parent
// directory is watched rather than the file itself: external parsers
// typically replace the snapshot atomically (write temp file, rename), which
// drops a watch placed on the file's inode.
type SnapshotWatcher struct {
	watcher  *fsnotify.Watcher
	snapshot string // absolute path of the snapshot file
	events   chan ChangeEvent
	mu       sync.Mutex
}

// NewSnapshotWatcher creates a watcher for the snapshot at path
func NewSnapshotWatcher(path string) (*SnapshotWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving snapshot path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &SnapshotWatcher{
		watcher:  fsw,
		snapshot: abs,
		events:   make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for snapshot changes
func (sw *SnapshotWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(sw.snapshot)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	logging.Info("watching snapshot", "path", sw.snapshot)
	go sw.processEvents(ctx)
	return nil
}

// Events returns the channel of raw change events; pair it with a Debouncer
func (sw *SnapshotWatcher) Events() <-chan ChangeEvent {
	return sw.events
}

// Stop closes the watcher
func (sw *SnapshotWatcher) Stop() error {
	return sw.watcher.Close()
}

func (sw *SnapshotWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(sw.events)
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				close(sw.events)
				return
			}
			if !sw.relevant(event) {
				continue
			}
			logging.Debug("snapshot changed", "path", event.Name, "op", event.Op.String())
			select {
			case sw.events <- ChangeEvent{Paths: []string{event.Name}, Timestamp: time.Now()}:
			default:
				logging.Warn("watch event channel full, dropping event", "path", event.Name)
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				close(sw.events)
				return
			}
			logging.Warn("watch error", "error", err)
		}
	}
}

// relevant filters directory noise down to writes of the snapshot file
func (sw *SnapshotWatcher) relevant(event fsnotify.Event) bool {
	if event.Name != sw.snapshot {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}
