package input

import (
	"github.com/tesselslate/deskctl/internal/calib"
)

// Drag step bounds. Some toolkits only recognize a drag after several motion
// events, so even short drags get MinDragSteps.
const (
	MinDragSteps = 8
	MaxDragSteps = 240

	dragStepSize = 6
)

// DragSteps returns the number of interpolated motion events used to drag
// between two points.
func DragSteps(from, to calib.Point) int {
	dist := max(abs(to.X-from.X), abs(to.Y-from.Y))
	steps := max(MinDragSteps, dist/dragStepSize)
	return min(steps, MaxDragSteps)
}

// DragPath returns the intermediate points of a drag, excluding the start
// and ending exactly at the target.
func DragPath(from, to calib.Point) []calib.Point {
	steps := DragSteps(from, to)
	path := make([]calib.Point, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		path[i-1] = calib.Point{
			X: lerp(from.X, to.X, t),
			Y: lerp(from.Y, to.Y, t),
		}
	}
	return path
}

// lerp interpolates between a and b, rounding to the nearest integer.
func lerp(a, b int, t float64) int {
	if t >= 1 {
		return b
	}
	v := float64(a) + float64(b-a)*t
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
