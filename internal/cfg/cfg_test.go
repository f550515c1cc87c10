package cfg_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tesselslate/deskctl/internal/cfg"
	"github.com/tesselslate/deskctl/internal/log"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
log_level = "debug"

[display]
default_size = "2560x1440"

[input]
drag_step_delay = 5

[stream]
fps = 60
`)
	p, err := cfg.LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.LogLevel != log.DEBUG {
		t.Fatalf("got level %s, want DEBUG", p.LogLevel)
	}
	if p.Display.DefaultSize != (cfg.Size{W: 2560, H: 1440}) {
		t.Fatalf("got size %s, want 2560x1440", p.Display.DefaultSize)
	}
	if got := p.Input.StepDelay(); got != 5*time.Millisecond {
		t.Fatalf("got step delay %v, want 5ms", got)
	}
	if got := p.Stream.Interval(); got != time.Second/60 {
		t.Fatalf("got interval %v, want %v", got, time.Second/60)
	}

	// Missing settings keep their defaults.
	def := cfg.Default()
	if p.Stream.Buffer != def.Stream.Buffer {
		t.Fatalf("got buffer %d, want %d", p.Stream.Buffer, def.Stream.Buffer)
	}
	if p.Input.HoldDefault != def.Input.HoldDefault {
		t.Fatalf("got hold %d, want %d", p.Input.HoldDefault, def.Input.HoldDefault)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)

	path, err := cfg.MakeProfile("default")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "default.toml" {
		t.Fatalf("got path %s, want default.toml", path)
	}
	if _, err := cfg.MakeProfile("default"); err == nil {
		t.Fatal("existing profile was overwritten")
	}
	names, err := cfg.ListProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "default" {
		t.Fatalf("got profiles %v, want [default]", names)
	}
	p, err := cfg.GetProfile("default")
	if err != nil {
		t.Fatal(err)
	}
	if p != cfg.Default() {
		t.Fatalf("default profile differs from defaults: %+v", p)
	}
}

func TestInvalidProfiles(t *testing.T) {
	tests := map[string]string{
		"size":      `[display]` + "\n" + `default_size = "0x1080"`,
		"size text": `[display]` + "\n" + `default_size = "big"`,
		"size type": `[display]` + "\n" + `default_size = 1920`,
		"fps low":   `[stream]` + "\n" + `fps = 0`,
		"fps high":  `[stream]` + "\n" + `fps = 121`,
		"buffer":    `[stream]` + "\n" + `buffer = 0`,
		"display":   `[capture]` + "\n" + `display = -1`,
		"delay":     `[input]` + "\n" + `type_delay = -5`,
		"level":     `log_level = "loud"`,
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := cfg.LoadProfile(writeProfile(t, contents)); err == nil {
				t.Fatal("invalid profile was accepted")
			}
		})
	}
}

func TestZeroStepDelayDisablesPause(t *testing.T) {
	in := cfg.Input{}
	if in.StepDelay() >= 0 {
		t.Fatalf("got %v, want negative delay", in.StepDelay())
	}
}

func TestSizeDecode(t *testing.T) {
	var v struct {
		S cfg.Size `toml:"s"`
	}
	if _, err := toml.Decode(`s = "800x600"`, &v); err != nil {
		t.Fatal(err)
	}
	if v.S.W != 800 || v.S.H != 600 {
		t.Fatalf("got %s, want 800x600", v.S)
	}
	if v.S.Calib().W != 800 {
		t.Fatalf("got width %d, want 800", v.S.Calib().W)
	}
}

func TestWatchFile(t *testing.T) {
	path := writeProfile(t, "[stream]\nfps = 10\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := cfg.WatchFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[stream]\nfps = 20\n"), 0644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case update := <-ch:
			// A write may be observed before it completes.
			if update.Err != nil {
				if strings.Contains(update.Err.Error(), "watch profile") {
					t.Fatal(update.Err)
				}
				continue
			}
			if update.Profile.Stream.FPS == 20 {
				return
			}
		case <-timeout:
			t.Fatal("no update after write")
		}
	}
}
