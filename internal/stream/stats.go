package stream

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats contains counters updated by the controller and server. All methods
// are safe for concurrent use.
type Stats struct {
	start time.Time

	frames        atomic.Uint64
	dropped       atomic.Uint64
	bytes         atomic.Uint64
	events        atomic.Uint64
	eventErrors   atomic.Uint64
	captureErrors atomic.Uint64
	captureNanos  atomic.Int64
	clients       atomic.Int64
	fps           atomic.Uint64 // math.Float64bits

	// Used by the capture loop only.
	windowStart  time.Time
	windowFrames uint64
}

// Snapshot is a point in time copy of Stats.
type Snapshot struct {
	Frames        uint64  `json:"frames"`
	Dropped       uint64  `json:"dropped"`
	Bytes         uint64  `json:"bytes"`
	Events        uint64  `json:"events"`
	EventErrors   uint64  `json:"event_errors"`
	CaptureErrors uint64  `json:"capture_errors"`
	AvgCaptureMs  float64 `json:"avg_capture_ms"`
	FPS           float64 `json:"fps"`
	Clients       int     `json:"clients"`
	UptimeMs      int64   `json:"uptime_ms"`
}

// NewStats creates a zeroed Stats starting now.
func NewStats() *Stats {
	now := time.Now()
	return &Stats{start: now, windowStart: now}
}

func (s *Stats) addFrame(took time.Duration) {
	s.frames.Add(1)
	s.captureNanos.Add(int64(took))
}

func (s *Stats) addCaptureError() {
	s.captureErrors.Add(1)
}

func (s *Stats) addDropped() {
	s.dropped.Add(1)
}

func (s *Stats) addBytes(n int) {
	s.bytes.Add(uint64(n))
}

func (s *Stats) addEvent(err error) {
	s.events.Add(1)
	if err != nil {
		s.eventErrors.Add(1)
	}
}

func (s *Stats) addClient(n int) {
	s.clients.Add(int64(n))
}

// tick updates the measured frame rate about once per second.
func (s *Stats) tick(now time.Time) {
	elapsed := now.Sub(s.windowStart)
	if elapsed < time.Second {
		return
	}
	frames := s.frames.Load()
	fps := float64(frames-s.windowFrames) / elapsed.Seconds()
	s.fps.Store(math.Float64bits(fps))
	s.windowStart = now
	s.windowFrames = frames
}

// Snapshot returns the current values of all counters.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Frames:        s.frames.Load(),
		Dropped:       s.dropped.Load(),
		Bytes:         s.bytes.Load(),
		Events:        s.events.Load(),
		EventErrors:   s.eventErrors.Load(),
		CaptureErrors: s.captureErrors.Load(),
		FPS:           math.Float64frombits(s.fps.Load()),
		Clients:       int(s.clients.Load()),
		UptimeMs:      time.Since(s.start).Milliseconds(),
	}
	if snap.Frames > 0 {
		snap.AvgCaptureMs = float64(s.captureNanos.Load()) / float64(snap.Frames) / 1e6
	}
	return snap
}
