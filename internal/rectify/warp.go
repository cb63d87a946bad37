package rectify

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/markertrack/internal/detection"
	"github.com/ironsheep/markertrack/internal/imaging"
)

// MaxSide caps the rectified output dimensions.
const MaxSide = 16384

// ErrOutputTooLarge is returned when the quadrilateral would rectify to an
// image wider or taller than MaxSide.
var ErrOutputTooLarge = errors.New("rectified output too large")

// Frame is a rectified frame together with the transform that produced it.
type Frame struct {
	Image  *image.NRGBA
	Width  int
	Height int

	// Transform maps source image coordinates to rectified coordinates.
	Transform Homography
}

// OutputSize returns the rectified dimensions for quad.
//
// Width is the longer of the top and bottom edges, height the longer of the
// left and right edges, each truncated to an integer and at least 1.
func OutputSize(quad detection.Quadrilateral) (width, height int) {
	top := quad.TL.Dist(quad.TR)
	bottom := quad.BL.Dist(quad.BR)
	left := quad.TL.Dist(quad.BL)
	right := quad.TR.Dist(quad.BR)

	width = max(int(math.Floor(top)), int(math.Floor(bottom)), 1)
	height = max(int(math.Floor(left)), int(math.Floor(right)), 1)
	return width, height
}

// Rectify warps img so that quad becomes the full W×H output rectangle.
//
// The corners map to (0,0), (W−1,0), (W−1,H−1) and (0,H−1). Each output pixel
// is sampled bilinearly from its inverse-mapped source position; samples
// outside the source are black.
func Rectify(img image.Image, quad detection.Quadrilateral) (*Frame, error) {
	w, h := OutputSize(quad)
	if w > MaxSide || h > MaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrOutputTooLarge, w, h)
	}

	fw, fh := float64(w-1), float64(h-1)
	dst := [4]detection.Point2{{X: 0, Y: 0}, {X: fw, Y: 0}, {X: fw, Y: fh}, {X: 0, Y: fh}}

	fwd, err := SolveHomography(quad.Corners(), dst)
	if err != nil {
		return nil, fmt.Errorf("solve homography: %w", err)
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return nil, fmt.Errorf("invert homography: %w", err)
	}

	src := imaging.ToNRGBA(img)
	origin := img.Bounds().Min
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			p, ok := inv.Apply(detection.Point2{X: float64(x), Y: float64(y)})
			if !ok {
				row[i+3] = 255
				continue
			}
			r, g, b := bilinear(src, p.X-float64(origin.X), p.Y-float64(origin.Y))
			row[i+0] = r
			row[i+1] = g
			row[i+2] = b
			row[i+3] = 255
		}
	}

	return &Frame{Image: out, Width: w, Height: h, Transform: fwd}, nil
}

// bilinear samples src at (x, y), where integer coordinates are pixel
// centres. Neighbours outside the image contribute black.
func bilinear(src *image.NRGBA, x, y float64) (r, g, b uint8) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, 0
	}

	x0f, y0f := math.Floor(x), math.Floor(y)
	fx, fy := x-x0f, y-y0f

	bw, bh := src.Bounds().Dx(), src.Bounds().Dy()
	if x0f < -1 || y0f < -1 || x0f >= float64(bw) || y0f >= float64(bh) {
		return 0, 0, 0
	}
	x0, y0 := int(x0f), int(y0f)

	var acc [3]float64
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	for k, off := range offsets {
		px, py := x0+off.X, y0+off.Y
		if weights[k] == 0 || px < 0 || py < 0 || px >= bw || py >= bh {
			continue
		}
		i := py*src.Stride + px*4
		acc[0] += weights[k] * float64(src.Pix[i+0])
		acc[1] += weights[k] * float64(src.Pix[i+1])
		acc[2] += weights[k] * float64(src.Pix[i+2])
	}

	return toByte(acc[0]), toByte(acc[1]), toByte(acc[2])
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
