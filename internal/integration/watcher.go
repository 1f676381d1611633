package integration

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// FileEvent is a single change notification from the watched directory.
type FileEvent struct {
	Path string
	// Write is true for content modifications (writes and creates); other
	// operations (chmod, rename, remove) are not interesting to the handler.
	Write bool
}

// WatchSource produces file-change events for a single directory.
type WatchSource interface {
	// Events starts watching and returns the event channel. The channel is
	// closed when ctx is cancelled or the underlying watcher fails.
	Events(ctx context.Context) (<-chan FileEvent, error)
}

type fsnotifyWatchSource struct {
	dir string
}

// NewWatchSource creates a WatchSource that watches dir non-recursively
// using fsnotify.
func NewWatchSource(dir string) WatchSource {
	return &fsnotifyWatchSource{dir: dir}
}

func (s *fsnotifyWatchSource) Events(ctx context.Context) (<-chan FileEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	events := make(chan FileEvent)
	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				fe := FileEvent{
					Path:  ev.Name,
					Write: ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create),
				}
				select {
				case events <- fe:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are transient on sync directories; the next
				// event retries naturally.
			}
		}
	}()
	return events, nil
}
