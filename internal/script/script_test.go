package script_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tesselslate/deskctl/internal/input"
	"github.com/tesselslate/deskctl/internal/res"
	"github.com/tesselslate/deskctl/internal/script"
)

type recorder struct {
	events []input.Event
	fail   int
}

func (r *recorder) Dispatch(e input.Event) error {
	r.events = append(r.events, e)
	if r.fail > 0 && len(r.events) == r.fail {
		return errors.New("dispatch failed")
	}
	return nil
}

const sample = `
events:
  - type: move
    x: 10
    y: 20
    wait: 1
  - type: click
    x: 10
    y: 20
    btn: right
  - type: key_down
    char: a
    mods: [ctrl, shift]
  - type: text
    text: hi
`

func TestParse(t *testing.T) {
	s, err := script.Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Events) != 4 {
		t.Fatalf("got %d events, want 4", len(s.Events))
	}
	if s.Events[0].X != 10 || s.Events[0].Y != 20 || s.Events[0].Wait != 1 {
		t.Fatalf("got %+v, want move to 10,20 with wait 1", s.Events[0])
	}
	if s.Events[1].Button != input.ButtonRight {
		t.Fatalf("got button %s, want right", s.Events[1].Button)
	}
	if s.Events[2].Mods != input.ModControl|input.ModShift {
		t.Fatalf("got mods %s, want ctrl-shift", s.Events[2].Mods)
	}
	if got := s.Duration(); got != time.Millisecond {
		t.Fatalf("got duration %v, want 1ms", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown type":  "events:\n  - type: wiggle\n",
		"unknown field": "events:\n  - type: move\n    z: 3\n",
		"extra field":   "events:\n  - type: move\n    text: hi\n",
		"negative wait": "events:\n  - type: move\n    wait: -1\n",
		"bad button":    "events:\n  - type: click\n    btn: fourth\n",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := script.Parse([]byte(contents)); err == nil {
				t.Fatal("invalid script was accepted")
			}
		})
	}
}

func TestExampleScriptIsValid(t *testing.T) {
	if _, err := script.Parse(res.ExampleScript); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	s, err := script.Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	if err := script.Run(context.Background(), rec, s); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 4 {
		t.Fatalf("got %d dispatched events, want 4", len(rec.events))
	}
	if rec.events[3].Text != "hi" {
		t.Fatalf("got %+v, want text event", rec.events[3])
	}
}

func TestRunStopsOnError(t *testing.T) {
	s, err := script.Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{fail: 2}
	if err := script.Run(context.Background(), rec, s); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.events) != 2 {
		t.Fatalf("got %d dispatched events, want 2", len(rec.events))
	}
}

func TestRunCancelled(t *testing.T) {
	s, err := script.Parse([]byte("events:\n  - type: move\n    wait: 10000\n  - type: move\n"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rec := &recorder{}
	err = script.Run(ctx, rec, s)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("got %d dispatched events, want 1", len(rec.events))
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte("events: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	loaded := make(chan *script.Script, 8)
	done := make(chan error, 1)
	go func() {
		done <- script.Watch(ctx, path, func(s *script.Script) { loaded <- s })
	}()

	// Give the watcher time to start before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	for {
		select {
		case s := <-loaded:
			if len(s.Events) == 4 {
				cancel()
				<-done
				return
			}
		case <-ctx.Done():
			t.Fatal("script was not reloaded")
		}
	}
}
