// Package script loads sequences of input events from YAML files and replays
// them.
package script

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tesselslate/deskctl/internal/input"
	"github.com/tesselslate/deskctl/internal/log"
	"github.com/tesselslate/deskctl/internal/watch"
)

// Step is a single event in a script, followed by an optional pause.
type Step struct {
	input.Event `yaml:",inline"`

	// Wait is the number of milliseconds to sleep after the event.
	Wait int `yaml:"wait,omitempty"`
}

// Script is a sequence of input events.
type Script struct {
	Events []Step `yaml:"events"`
}

// Dispatcher performs input events. It is implemented by
// *input.Synthesizer.
type Dispatcher interface {
	Dispatch(input.Event) error
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	for i := range s.Events {
		if err := s.Events[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		if s.Events[i].Wait < 0 {
			return nil, errors.Errorf("event %d: negative wait", i)
		}
	}
	return &s, nil
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	return Parse(data)
}

// Duration returns the total time spent waiting between events.
func (s *Script) Duration() time.Duration {
	var total time.Duration
	for _, step := range s.Events {
		total += time.Duration(step.Wait) * time.Millisecond
	}
	return total
}

// Run dispatches each event of the script in order, sleeping after each for
// its wait time. It stops early if ctx is cancelled or an event fails.
func Run(ctx context.Context, d Dispatcher, s *Script) error {
	for i, step := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Dispatch(step.Event); err != nil {
			return errors.Wrapf(err, "event %d (%s)", i, step.Type)
		}
		if step.Wait <= 0 {
			continue
		}
		timer := time.NewTimer(time.Duration(step.Wait) * time.Millisecond)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return nil
}

// Watch calls fn with the script at path whenever the file is modified, until
// ctx is cancelled. Scripts which fail to load are logged and skipped.
func Watch(ctx context.Context, path string, fn func(*Script)) error {
	events, err := watch.File(ctx, path)
	if err != nil {
		return errors.Wrap(err, "watch script")
	}
	for evt := range events {
		if evt.Err != nil {
			log.Warn("Script watcher error: %s", evt.Err)
			continue
		}
		s, err := Load(path)
		if err != nil {
			log.Warn("Failed to reload script: %s", err)
			continue
		}
		log.Info("Reloaded script %s (%d events)", path, len(s.Events))
		fn(s)
	}
	return ctx.Err()
}
