// Package watch notifies long-running consumers when the latest pointer
// moves, so a serving process can pick up a new snapshot version without
// polling or restarting.
package watch

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

	"github.com/docvault/docvault/internal/snapshot"
	"github.com/docvault/docvault/internal/versioning"
)

// debounceWindow coalesces the write+rename burst an atomic pointer
// update produces into a single event.
const debounceWindow = 200 * time.Millisecond

// Event is emitted when the latest pointer moves to a new version.
type Event struct {
	Version versioning.Version
	At      time.Time
}

// PointerWatcher watches a local data root for latest pointer updates.
// It only sees local filesystem state; on a hybrid backend that is the
// authoritative copy, so nothing is missed.
type PointerWatcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	events    chan Event
	errors    chan error
	stopCh    chan struct{}
	logger    *slog.Logger
	last      *versioning.Version
	stopOnce  sync.Once
}

// NewPointerWatcher creates a watcher over the directory containing the
// latest pointer (the snapshot root, e.g. <root>/raw).
func NewPointerWatcher(dir string, logger *slog.Logger) (*PointerWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	return &PointerWatcher{
		fsWatcher: fsw,
		dir:       dir,
		events:    make(chan Event, 16),
		errors:    make(chan error, 4),
		stopCh:    make(chan struct{}),
		logger:    logger,
	}, nil
}

// Events returns the channel of pointer change events.
func (w *PointerWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *PointerWatcher) Errors() <-chan error {
	return w.errors
}

// Start watches until the context is cancelled or Stop is called. It
// blocks; run it in its own goroutine. The current pointer value is read
// once at startup so only genuine moves are reported.
func (w *PointerWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watched directory: %w", err)
	}
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.last = w.readPointer()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.isPointerEvent(event) {
				continue
			}
			// Reset the debounce window on each burst member.
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.emitIfMoved()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", "error", err)
			}
		}
	}
}

// Stop shuts the watcher down. Safe to call multiple times.
func (w *PointerWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fsWatcher.Close()
	})
	return err
}

// isPointerEvent reports whether a filesystem event concerns the pointer
// file. Atomic updates surface as Create or Rename on the final name.
func (w *PointerWatcher) isPointerEvent(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != snapshot.PointerName {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// emitIfMoved reads the pointer and emits an event when it differs from
// the last observed value.
func (w *PointerWatcher) emitIfMoved() {
	v := w.readPointer()
	if v == nil {
		return
	}
	if w.last != nil && *w.last == *v {
		return
	}
	w.last = v

	select {
	case w.events <- Event{Version: *v, At: time.Now()}:
		w.logger.Info("latest pointer moved", "version", v.String())
	default:
		w.logger.Warn("pointer event dropped, consumer too slow", "version", v.String())
	}
}

// readPointer returns the current pointer value, nil if absent or not
// yet parseable (mid-write).
func (w *PointerWatcher) readPointer() *versioning.Version {
	data, err := os.ReadFile(filepath.Join(w.dir, snapshot.PointerName))
	if err != nil {
		return nil
	}
	v, err := versioning.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	return &v
}
