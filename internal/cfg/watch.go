package cfg

import (
	"context"
	"fmt"

	"github.com/tesselslate/deskctl/internal/watch"
)

// Update is sent by Watch whenever the profile changes. If the new profile
// could not be read, Err is set and the previous profile remains in effect.
type Update struct {
	Profile Profile
	Err     error
}

// Watch reloads the named profile whenever it is modified.
func Watch(ctx context.Context, name string) (<-chan Update, error) {
	path, err := GetPath(name)
	if err != nil {
		return nil, err
	}
	return WatchFile(ctx, path)
}

// WatchFile reloads the profile at path whenever it is modified. The returned
// channel is closed once ctx is cancelled.
func WatchFile(ctx context.Context, path string) (<-chan Update, error) {
	events, err := watch.File(ctx, path)
	if err != nil {
		return nil, err
	}
	ch := make(chan Update, 1)
	go func() {
		defer close(ch)
		for evt := range events {
			var update Update
			if evt.Err != nil {
				update.Err = fmt.Errorf("watch profile: %w", evt.Err)
			} else {
				update.Profile, update.Err = LoadProfile(path)
			}
			select {
			case ch <- update:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
