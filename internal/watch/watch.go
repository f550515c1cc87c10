// Package watch sends notifications whenever a file is modified.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Event is a notification from a file watcher. Err is set if the watcher
// encountered an error rather than a modification.
type Event struct {
	Path string
	Err  error
}

var errClosed = errors.New("watcher closed")

// File spawns a goroutine which sends an Event whenever the file at path is
// written or replaced. The parent directory is watched rather than the file
// itself, so that editors which save by renaming a new file over the old one
// are noticed. The returned channel is closed once ctx is cancelled or the
// watcher fails.
func File(ctx context.Context, path string) (<-chan Event, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	ch := make(chan Event, 32)
	go run(ctx, watcher, path, ch)
	return ch, nil
}

func run(ctx context.Context, watcher *fsnotify.Watcher, path string, ch chan<- Event) {
	defer close(ch)
	defer watcher.Close()

	send := func(evt Event) bool {
		select {
		case ch <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				send(Event{Path: path, Err: errClosed})
				return
			}
			if filepath.Clean(evt.Name) != path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !send(Event{Path: path}) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				send(Event{Path: path, Err: errClosed})
				return
			}
			if !send(Event{Path: path, Err: err}) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
