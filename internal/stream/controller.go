// Package stream runs a capture and input loop which can be controlled
// remotely over a websocket.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tesselslate/deskctl/internal/bmp"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/input"
	"github.com/tesselslate/deskctl/internal/log"
)

// snapshotInterval is the minimum time between snapshot writes.
const snapshotInterval = time.Second

// Grabber captures frames. It is implemented by *capture.Engine.
type Grabber interface {
	DisplayCount() int
	CaptureScreenWithCursor(i int) (*capture.Image, error)
}

// Synth performs input events. It is implemented by *input.Synthesizer.
type Synth interface {
	Dispatch(input.Event) error
	SetStepDelay(time.Duration)
	SetTypeDelay(time.Duration)
	DisplaySize() (int, int)
}

// Sink receives captured frames. SendFrame is called from the consumer loop
// and must not block.
type Sink interface {
	SendFrame(Frame)
}

// Options contains the settings of a Controller.
type Options struct {
	FPS      int    // Capture rate
	Buffer   int    // Frame buffer capacity
	Display  int    // Captured display index
	Snapshot string // If set, the latest frame is written here as a BMP
}

type delays struct {
	step, typing time.Duration
}

// Controller captures frames at a fixed rate and dispatches submitted input
// events. The synthesizer is only used from the controller's input loop.
type Controller struct {
	grab  Grabber
	synth Synth
	opts  Options

	frames *FrameBuffer
	queue  *InputQueue
	stats  *Stats

	captured chan struct{}
	latest   atomic.Pointer[Frame]
	pending  atomic.Pointer[delays]
	interval atomic.Int64

	mu    sync.Mutex
	sinks []Sink
}

// NewController creates a Controller. It does nothing until Run is called.
func NewController(grab Grabber, synth Synth, opts Options) *Controller {
	if opts.FPS < 1 {
		opts.FPS = 30
	}
	c := &Controller{
		grab:     grab,
		synth:    synth,
		opts:     opts,
		frames:   NewFrameBuffer(opts.Buffer),
		queue:    NewInputQueue(DefaultQueueSize),
		stats:    NewStats(),
		captured: make(chan struct{}, 1),
	}
	c.SetFPS(opts.FPS)
	return c
}

// Subscribe adds a sink which receives every frame taken from the buffer.
func (c *Controller) Subscribe(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Submit queues an input event for dispatch.
func (c *Controller) Submit(e input.Event) error {
	return c.queue.Push(e)
}

// SetDelays changes the synthesizer's drag step and typing delays. The change
// is applied by the input loop before the next event.
func (c *Controller) SetDelays(step, typing time.Duration) {
	c.pending.Store(&delays{step, typing})
	c.queue.notify()
}

// SetFPS changes the capture rate, starting with the next frame.
func (c *Controller) SetFPS(fps int) {
	if fps < 1 {
		fps = 1
	}
	c.interval.Store(int64(time.Second / time.Duration(fps)))
}

// Latest returns the most recently captured frame.
func (c *Controller) Latest() (Frame, bool) {
	f := c.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Stats returns the controller's counters.
func (c *Controller) Stats() *Stats {
	return c.stats
}

// DisplaySize returns the size of the input coordinate space.
func (c *Controller) DisplaySize() (int, int) {
	return c.synth.DisplaySize()
}

// DisplayCount returns the number of capturable displays.
func (c *Controller) DisplayCount() int {
	return c.grab.DisplayCount()
}

// Run starts the capture, input and consumer loops and blocks until ctx is
// cancelled and all of them have stopped.
func (c *Controller) Run(ctx context.Context) error {
	wg := sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		c.runCapture(ctx)
	}()
	go func() {
		defer wg.Done()
		c.runInput(ctx)
	}()
	go func() {
		defer wg.Done()
		c.runConsumer(ctx)
	}()
	log.Info("Streaming display %d at %d fps", c.opts.Display, c.opts.FPS)
	wg.Wait()
	log.Info("Stream stopped")
	return nil
}

func (c *Controller) runCapture(ctx context.Context) {
	var id uint64
	failing := false
	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		img, err := c.grab.CaptureScreenWithCursor(c.opts.Display)
		took := time.Since(start)
		if err != nil {
			c.stats.addCaptureError()
			if !failing {
				log.Warn("Capture failed: %s", err)
			} else {
				log.Debug("Capture failed: %s", err)
			}
			failing = true
		} else {
			if failing {
				log.Info("Capture recovered")
			}
			failing = false
			id++
			frame := Frame{ID: id, Timestamp: start.UnixMilli(), Image: img}
			c.latest.Store(&frame)
			if c.frames.Push(frame) {
				c.stats.addDropped()
			}
			c.stats.addFrame(took)
			select {
			case c.captured <- struct{}{}:
			default:
			}
		}
		c.stats.tick(time.Now())

		// Keep a steady rate, but do not try to catch up after a stall.
		next = next.Add(time.Duration(c.interval.Load()))
		now := time.Now()
		if next.Before(now) {
			next = now
		}
		timer.Reset(next.Sub(now))
	}
}

func (c *Controller) runInput(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.queue.Ready():
		}
		if d := c.pending.Swap(nil); d != nil {
			c.synth.SetStepDelay(d.step)
			c.synth.SetTypeDelay(d.typing)
			log.Debug("Applied input delays: step %v, type %v", d.step, d.typing)
		}
		for {
			if ctx.Err() != nil {
				return
			}
			e, ok := c.queue.Pop()
			if !ok {
				break
			}
			err := c.synth.Dispatch(e)
			c.stats.addEvent(err)
			if err != nil {
				log.Warn("Failed to dispatch %s event: %s", e.Type, err)
			} else {
				log.Verbose("Dispatched %s event", e.Type)
			}
		}
	}
}

func (c *Controller) runConsumer(ctx context.Context) {
	var lastSnapshot time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.captured:
		}
		for {
			frame, ok := c.frames.Pop()
			if !ok {
				break
			}
			c.mu.Lock()
			sinks := c.sinks
			c.mu.Unlock()
			for _, sink := range sinks {
				sink.SendFrame(frame)
			}
			if c.opts.Snapshot != "" && time.Since(lastSnapshot) >= snapshotInterval {
				lastSnapshot = time.Now()
				if err := bmp.WriteFile(c.opts.Snapshot, frame.Image); err != nil {
					log.Warn("Failed to write snapshot: %s", err)
				}
			}
		}
	}
}
