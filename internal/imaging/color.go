package imaging

import (
	"image"
	"math"
)

// RedDominance scores how strongly a pixel's colour is red relative to green and blue.
//
// The score is R - (G+B)/2 computed in float64, so it ranges from -255 (pure
// cyan) to 255 (pure red) without integer truncation or channel overflow.
func RedDominance(r, g, b uint8) float64 {
	return float64(r) - (float64(g)+float64(b))/2.0
}

// MarkerResult describes the located marker.
type MarkerResult struct {
	// Point is the marker's pixel coordinate relative to the image origin.
	Point Point `json:"point"`

	// Score is the red-dominance score of the pixel at Point.
	Score float64 `json:"score"`
}

// LocateMarker returns the pixel coordinate with the highest red-dominance score.
//
// The search is an exact global maximum over every pixel. Pixels are visited in
// row-major order (top-to-bottom, then left-to-right) and a later pixel only
// replaces the current best when its score is strictly greater, so ties
// resolve to the earliest pixel. A uniform image therefore yields (0,0).
//
// LocateMarker never fails for an image with at least one pixel. For an empty
// image it returns (0,0); use LocateMarkerOK to distinguish that case.
func LocateMarker(img image.Image) Point {
	res, _ := LocateMarkerOK(img)
	return res.Point
}

// LocateMarkerOK is LocateMarker with the score attached. The boolean is false
// only when img has no pixels.
func LocateMarkerOK(img image.Image) (MarkerResult, bool) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return MarkerResult{}, false
	}

	best := MarkerResult{Score: math.Inf(-1)}

	if n, ok := img.(*image.NRGBA); ok {
		// Fast path: read non-premultiplied channels directly.
		w, h := bounds.Dx(), bounds.Dy()
		for y := 0; y < h; y++ {
			row := n.Pix[y*n.Stride:]
			for x := 0; x < w; x++ {
				score := RedDominance(row[x*4], row[x*4+1], row[x*4+2])
				if score > best.Score {
					best = MarkerResult{Point: Point{X: x, Y: y}, Score: score}
				}
			}
		}
		return best, true
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Convert from 16-bit to 8-bit
			score := RedDominance(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			if score > best.Score {
				best = MarkerResult{Point: Point{X: x - bounds.Min.X, Y: y - bounds.Min.Y}, Score: score}
			}
		}
	}
	return best, true
}
