package imaging

import (
	"fmt"
	"math"
)

// Point is an integer pixel coordinate: X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the point the way it appears in reports, e.g. "(10, 20)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Distance returns the Euclidean distance between two points in pixels.
func Distance(a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Hypot(dx, dy)
}

// DistanceResult contains measurement information between two points.
type DistanceResult struct {
	DistancePixels float64 `json:"distance_pixels"`
	DeltaX         int     `json:"delta_x"`
	DeltaY         int     `json:"delta_y"`
	AngleDegrees   float64 `json:"angle_degrees"`
}

// MeasureDistance describes the displacement from a to b.
// The angle is measured from the positive X axis with Y pointing down,
// so 90 degrees means straight down the frame.
func MeasureDistance(a, b Point) DistanceResult {
	deltaX := b.X - a.X
	deltaY := b.Y - a.Y
	angle := math.Atan2(float64(deltaY), float64(deltaX)) * 180 / math.Pi

	return DistanceResult{
		DistancePixels: Distance(a, b),
		DeltaX:         deltaX,
		DeltaY:         deltaY,
		AngleDegrees:   math.Round(angle*10) / 10,
	}
}
