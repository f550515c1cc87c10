package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tesselslate/deskctl/internal/cfg"
	"github.com/tesselslate/deskctl/internal/log"
	"github.com/tesselslate/deskctl/internal/stream"
	"github.com/tesselslate/deskctl/internal/ui"
)

// statsInterval is how often statistics are logged without a terminal UI.
const statsInterval = 10 * time.Second

func runStream(name string) error {
	tty := isTerminal()
	if name == "" && tty {
		names, err := cfg.ListProfiles()
		if err != nil {
			return err
		}
		if len(names) > 1 {
			name, err = ui.ShowProfileMenu(names)
			if err != nil {
				return err
			}
			if name == "" {
				return nil
			}
		}
	}
	profile, name, err := loadProfile(name)
	if err != nil {
		return err
	}
	logger, err := setupLogger(profile.LogLevel, false)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logger.Close()
	if name != "" {
		log.Info("Using profile %s", name)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	e, err := openEnv(ctx, profile)
	if err != nil {
		return err
	}
	defer e.backend.Close()
	if e.engine.DisplayCount() == 0 {
		return errors.New("no displays can be captured")
	}

	conf := profile.Stream
	ctrl := stream.NewController(e.engine, e.synth, stream.Options{
		FPS:      conf.FPS,
		Buffer:   conf.Buffer,
		Display:  profile.Capture.Display,
		Snapshot: conf.Snapshot,
	})
	srv := stream.NewServer(ctrl)

	if name != "" {
		updates, err := cfg.Watch(ctx, name)
		if err != nil {
			log.Warn("Profile changes will not be applied: %s", err)
		} else {
			go applyUpdates(updates, profile, ctrl, logger)
		}
	}

	var wg sync.WaitGroup
	errch := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errch <- ctrl.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(ctx, conf.Listen); err != nil {
			errch <- err
			cancel()
		}
	}()

	if tty {
		lw := ui.NewLogWriter()
		logger.SetConsoleWriter(lw)
		model := ui.NewModel(conf.Listen, ctrl.Stats().Snapshot)
		if err := ui.Run(ctx, model, lw.Lines()); err != nil {
			log.Error("Dashboard failed: %s", err)
		}
		logger.SetConsoleWriter(os.Stdout)
		cancel()
	} else {
		logStats(ctx, ctrl.Stats())
	}
	wg.Wait()

	close(errch)
	for err := range errch {
		if err != nil {
			return err
		}
	}
	return nil
}

// applyUpdates applies the settings of a reloaded profile which can change
// while streaming.
func applyUpdates(updates <-chan cfg.Update, current cfg.Profile, ctrl *stream.Controller, logger *log.Logger) {
	for update := range updates {
		if update.Err != nil {
			log.Warn("Failed to reload profile: %s", update.Err)
			continue
		}
		p := update.Profile
		logger.SetLevel(p.LogLevel)
		ctrl.SetDelays(p.Input.StepDelay(), p.Input.CharDelay())
		ctrl.SetFPS(p.Stream.FPS)
		if p.Stream.Listen != current.Stream.Listen ||
			p.Stream.Buffer != current.Stream.Buffer ||
			p.Stream.Snapshot != current.Stream.Snapshot ||
			p.Capture.Display != current.Capture.Display {
			log.Warn("Some profile changes require a restart to take effect")
		}
		log.Info("Reloaded profile")
	}
}

func logStats(ctx context.Context, stats *stream.Stats) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := stats.Snapshot()
			log.Info(
				"%d clients | %.1f fps | %d frames (%d dropped) | %.1f MB sent | %d events",
				s.Clients, s.FPS, s.Frames, s.Dropped, float64(s.Bytes)/1e6, s.Events,
			)
		}
	}
}
