package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/markertrack/internal/imaging"
)

// Edge-detection thresholds and polygon tolerance used to find the reference
// surface. They are fixed so that every frame of a run is treated identically.
const (
	CannyLow       = 50
	CannyHigh      = 150
	ApproxFraction = 0.02
)

var (
	// ErrQuadNotFound is returned when no four-cornered reference surface is
	// found. Callers fall back to the unrectified frame.
	ErrQuadNotFound = errors.New("reference surface not found")

	// ErrDegenerateQuad is returned when a four-vertex outline cannot be
	// assigned distinct corners. It wraps ErrQuadNotFound.
	ErrDegenerateQuad = fmt.Errorf("%w: corners are not distinct", ErrQuadNotFound)
)

// Point2 is a floating-point image coordinate.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point2) Dist(q Point2) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Quadrilateral is a reference surface outline with corners in canonical order.
type Quadrilateral struct {
	TL Point2 `json:"top_left"`
	TR Point2 `json:"top_right"`
	BR Point2 `json:"bottom_right"`
	BL Point2 `json:"bottom_left"`
}

// Corners returns the corners as {TL, TR, BR, BL}.
func (q Quadrilateral) Corners() [4]Point2 {
	return [4]Point2{q.TL, q.TR, q.BR, q.BL}
}

// SurfaceResult reports the detection details alongside the quadrilateral.
type SurfaceResult struct {
	Quad *Quadrilateral `json:"quad,omitempty"`

	// ContourArea is the area of the largest contour in square pixels.
	ContourArea float64 `json:"contour_area"`

	// Vertices is the number of vertices after polygon approximation.
	Vertices int `json:"vertices"`

	// Contours is the number of external contours found.
	Contours int `json:"contours"`
}

// DetectQuadrilateral finds the four corners of the reference surface.
//
// Returns ErrQuadNotFound (possibly wrapped) when no surface is found.
func DetectQuadrilateral(img image.Image) (*Quadrilateral, error) {
	res, err := DetectSurface(img)
	if err != nil {
		return nil, err
	}
	return res.Quad, nil
}

// DetectSurface runs surface detection and returns diagnostics even on failure.
//
// # Algorithm
//
//  1. Edge Detection: Canny with thresholds (CannyLow, CannyHigh) on the
//     blurred grayscale image
//  2. Contour Finding: trace the outer boundary of each connected edge region
//  3. Selection: keep the contour enclosing the largest area
//  4. Approximation: Douglas-Peucker with epsilon = ApproxFraction × perimeter
//  5. Acceptance: succeed only if exactly four vertices remain
//
// The returned error is nil exactly when res.Quad is non-nil.
func DetectSurface(img image.Image) (*SurfaceResult, error) {
	edges := imaging.Canny(img, CannyLow, CannyHigh)
	contours := FindExternalContours(edges)

	res := &SurfaceResult{Contours: len(contours)}
	idx := LargestContour(contours)
	if idx < 0 {
		return res, fmt.Errorf("%w: no contours", ErrQuadNotFound)
	}

	largest := contours[idx]
	res.ContourArea = ContourArea(largest)

	approx := ApproxPolyDP(largest, ApproxFraction*ArcLength(largest))
	res.Vertices = len(approx)
	if len(approx) != 4 {
		return res, fmt.Errorf("%w: outline has %d vertices", ErrQuadNotFound, len(approx))
	}

	pts := make([]Point2, 4)
	for i, p := range approx {
		// Shift back into the image's own coordinate space.
		pts[i] = Point2{X: float64(p.X + img.Bounds().Min.X), Y: float64(p.Y + img.Bounds().Min.Y)}
	}

	quad, err := OrderCorners(pts)
	if err != nil {
		return res, err
	}
	res.Quad = quad
	return res, nil
}

// OrderCorners assigns four points to canonical corners.
//
// The top-left corner has the smallest x+y and the bottom-right the largest.
// The top-right corner has the smallest y−x and the bottom-left the largest.
// Ties keep the point that appears first in pts, which for detected outlines
// is contour traversal order. If any two roles resolve to the same point the
// outline is degenerate and ErrDegenerateQuad is returned.
func OrderCorners(pts []Point2) (*Quadrilateral, error) {
	if len(pts) != 4 {
		return nil, fmt.Errorf("%w: need 4 corners, got %d", ErrQuadNotFound, len(pts))
	}

	tl, br, tr, bl := 0, 0, 0, 0
	for i, p := range pts {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if sum > pts[br].X+pts[br].Y {
			br = i
		}
		if diff < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if diff > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}

	used := map[int]bool{tl: true, tr: true, br: true, bl: true}
	if len(used) != 4 {
		return nil, ErrDegenerateQuad
	}

	return &Quadrilateral{TL: pts[tl], TR: pts[tr], BR: pts[br], BL: pts[bl]}, nil
}
