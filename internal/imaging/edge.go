package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// blurRadius gives bild's separable Gaussian a 5-tap kernel (length = 2*radius+1).
const blurRadius = 2

// Edge pixel values in the map returned by Canny.
const (
	EdgeOff uint8 = 0
	EdgeOn  uint8 = 255
)

// Canny performs Canny edge detection and returns a binary edge map.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Gradient magnitude below which a pixel is never an edge.
//   - thresholdHigh: Gradient magnitude above which a pixel is always an edge.
//
// Thresholds are in 8-bit intensity units, so (50, 150) behaves like the
// common OpenCV settings. The returned *image.Gray has the same size as img,
// bounds starting at (0,0), and pixels set to EdgeOn or EdgeOff.
//
// # Algorithm
//
//  1. Grayscale conversion using ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B)
//
//  2. Gaussian blur with a 5x5 separable kernel to reduce noise
//
//  3. Gradient computation with 3x3 Sobel operators,
//     magnitude = |Gx| + |Gy|
//
//  4. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  5. Hysteresis: strong pixels (>= thresholdHigh) seed the edge set, which
//     then grows through 8-connected weak pixels (>= thresholdLow)
func Canny(img image.Image, thresholdLow, thresholdHigh float64) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	blurred := blur.Gaussian(gray, blurRadius)

	// bild returns RGBA with equal channels; read the red one back as intensity.
	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := blurred.Pix[y*blurred.Stride:]
		for x := 0; x < width; x++ {
			lum[y*width+x] = float64(row[x*4])
		}
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := lum[py*width+px]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Abs(gx) + math.Abs(gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: flood from strong pixels through weak ones.
	stack := make([]int, 0, width)
	for i, v := range suppressed {
		if v >= thresholdHigh && result.Pix[i] == EdgeOff {
			result.Pix[i] = EdgeOn
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == EdgeOff && suppressed[n] >= thresholdLow {
						result.Pix[n] = EdgeOn
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
