// Package calib maps between the logical coordinate space accepted by input
// injection APIs and the pixel space reported by screen capture.
package calib

import (
	"math"
	"sync"
)

// DefaultSize is the display size assumed when no monitor can be queried.
var DefaultSize = Size{1920, 1080}

// Point is a position in either logical or pixel units. Which one depends on
// where it came from.
type Point struct {
	X, Y int
}

// Size is a width and height.
type Size struct {
	W, H int
}

// Scale is the number of pixels per logical unit along each axis.
type Scale struct {
	X, Y float64
}

// Rect is a rectangle with its top left corner at (X, Y).
type Rect struct {
	X, Y, W, H int
}

// Contains returns whether the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Monitor describes a single display.
type Monitor struct {
	Name    string
	Bounds  Rect // Logical bounds in the global desktop space.
	Pixels  Size // Native pixel resolution.
	Primary bool
}

// Scale returns the pixel/logical ratio of the monitor. Degenerate bounds
// yield a scale of 1.
func (m Monitor) Scale() Scale {
	s := Scale{1, 1}
	if m.Bounds.W > 0 && m.Pixels.W > 0 {
		s.X = float64(m.Pixels.W) / float64(m.Bounds.W)
	}
	if m.Bounds.H > 0 && m.Pixels.H > 0 {
		s.Y = float64(m.Pixels.H) / float64(m.Bounds.H)
	}
	return s
}

// Geometry is the calibration of the monitor containing the cursor.
type Geometry struct {
	Origin Point // Logical origin of the monitor.
	Size   Size  // Pixel size of the monitor.
	Scale  Scale
}

// Source reports monitor layout and the live cursor position. Backends which
// cannot answer return an error and the calibrator falls back.
type Source interface {
	Monitors() ([]Monitor, error)
	Cursor() (Point, error)
}

// Calibrator computes display geometry from a Source.
type Calibrator struct {
	src         Source
	defaultSize Size

	mu   sync.Mutex
	last Geometry
}

// New creates a Calibrator. A nil source always yields the default geometry.
func New(src Source, defaultSize Size) *Calibrator {
	if defaultSize.W <= 0 || defaultSize.H <= 0 {
		defaultSize = DefaultSize
	}
	c := &Calibrator{src: src, defaultSize: defaultSize}
	c.last = c.fallback()
	return c
}

// Calibrate finds the monitor containing the cursor and returns its geometry.
// If the cursor is on no known monitor, the primary monitor is used. If no
// monitors can be listed, the default size with a scale of 1 is used.
func (c *Calibrator) Calibrate() Geometry {
	geo := c.calibrate()
	c.mu.Lock()
	c.last = geo
	c.mu.Unlock()
	return geo
}

// Last returns the result of the most recent calibration.
func (c *Calibrator) Last() Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// ToPixel converts a logical point to pixel space using the most recent
// calibration. The result is not clamped.
func (c *Calibrator) ToPixel(p Point) Point {
	return c.Last().ToPixel(p)
}

// ToLogical converts a pixel point to logical space using the most recent
// calibration.
func (c *Calibrator) ToLogical(p Point) Point {
	return c.Last().ToLogical(p)
}

// PrimaryDisplayPixelSize returns the pixel size of the main display,
// regardless of where the cursor is.
func (c *Calibrator) PrimaryDisplayPixelSize() (int, int) {
	if c.src != nil {
		if mons, err := c.src.Monitors(); err == nil {
			if m, ok := primary(mons); ok {
				return m.Pixels.W, m.Pixels.H
			}
		}
	}
	return c.defaultSize.W, c.defaultSize.H
}

// PrimaryLogicalSize returns the logical size of the main display.
func (c *Calibrator) PrimaryLogicalSize() (int, int) {
	if c.src != nil {
		if mons, err := c.src.Monitors(); err == nil {
			if m, ok := primary(mons); ok {
				return m.Bounds.W, m.Bounds.H
			}
		}
	}
	return c.defaultSize.W, c.defaultSize.H
}

func (c *Calibrator) calibrate() Geometry {
	if c.src == nil {
		return c.fallback()
	}
	mons, err := c.src.Monitors()
	if err != nil || len(mons) == 0 {
		return c.fallback()
	}
	if cur, err := c.src.Cursor(); err == nil {
		for _, m := range mons {
			if m.Bounds.Contains(cur) {
				return geometryOf(m)
			}
		}
	}
	m, _ := primary(mons)
	return geometryOf(m)
}

func (c *Calibrator) fallback() Geometry {
	return Geometry{Size: c.defaultSize, Scale: Scale{1, 1}}
}

// ToPixel converts a logical point to pixel space.
func (g Geometry) ToPixel(p Point) Point {
	return Point{
		X: round(float64(p.X-g.Origin.X) * g.Scale.X),
		Y: round(float64(p.Y-g.Origin.Y) * g.Scale.Y),
	}
}

// ToLogical converts a pixel point to logical space.
func (g Geometry) ToLogical(p Point) Point {
	sx, sy := g.Scale.X, g.Scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Point{
		X: round(float64(p.X)/sx) + g.Origin.X,
		Y: round(float64(p.Y)/sy) + g.Origin.Y,
	}
}

// Clamp restricts a pixel point to the bounds of the calibrated monitor.
func (g Geometry) Clamp(p Point) Point {
	return Point{clamp(p.X, 0, g.Size.W-1), clamp(p.Y, 0, g.Size.H-1)}
}

func geometryOf(m Monitor) Geometry {
	size := m.Pixels
	if size.W <= 0 || size.H <= 0 {
		size = Size{m.Bounds.W, m.Bounds.H}
	}
	return Geometry{
		Origin: Point{m.Bounds.X, m.Bounds.Y},
		Size:   size,
		Scale:  m.Scale(),
	}
}

func primary(mons []Monitor) (Monitor, bool) {
	if len(mons) == 0 {
		return Monitor{}, false
	}
	for _, m := range mons {
		if m.Primary {
			return m, true
		}
	}
	return mons[0], true
}

func round(f float64) int {
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
