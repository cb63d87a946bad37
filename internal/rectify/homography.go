// Package rectify maps a quadrilateral reference surface onto an axis-aligned
// rectangle, removing the camera's perspective.
package rectify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/markertrack/internal/detection"
)

// ErrSingular is returned when four correspondences do not determine a
// projective transform, e.g. when three source corners are collinear.
var ErrSingular = errors.New("homography is singular")

// Homography is a 3x3 projective transform stored row-major with H[8] = 1.
//
//	u = (H[0]x + H[1]y + H[2]) / (H[6]x + H[7]y + H[8])
//	v = (H[3]x + H[4]y + H[5]) / (H[6]x + H[7]y + H[8])
type Homography [9]float64

// SolveHomography returns the unique transform mapping src[i] to dst[i].
//
// The eight unknowns are found from the exact 8x8 linear system built from
// the four correspondences; no iteration or least squares is involved.
func SolveHomography(src, dst [4]detection.Point2) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(2*i, u)
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) || math.IsNaN(float64(cond)) {
			return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		// Ill-conditioned but solved; the result is still usable.
	}

	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
	}
	out[8] = 1

	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, ErrSingular
		}
	}
	return out, nil
}

// Apply maps p through the transform. The boolean is false when p maps to
// infinity (it lies on the transform's vanishing line).
func (h Homography) Apply(p detection.Point2) (detection.Point2, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return detection.Point2{}, false
	}
	return detection.Point2{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the transform mapping back from destination to source.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}

	if math.Abs(out[8]) > 1e-12 {
		s := out[8]
		for i := range out {
			out[i] /= s
		}
	}
	return out, nil
}
