package report

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	imgio "github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/markertrack/internal/imaging"
)

// Ring geometry and label placement for annotated frames.
const (
	RingRadius  = 5
	RingWidth   = 2
	LabelOffset = 10
	TextMargin  = 10
)

// DefaultRingColor is used when no ring colour is configured.
var DefaultRingColor = color.NRGBA{R: 255, A: 255}

var labelFace = basicfont.Face7x13

// ParseColor parses a hex colour such as "#FF0000", "#f00" or "ff0000".
func ParseColor(hex string) (color.NRGBA, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawRing draws a circle outline of the given radius and stroke width
// centred on p. Pixels outside img are ignored.
func DrawRing(img *image.NRGBA, p imaging.Point, radius, width int, c color.NRGBA) {
	outer := float64(radius) + 0.5
	inner := float64(radius-width) + 0.5
	b := img.Bounds()

	for y := p.Y - radius - 1; y <= p.Y+radius+1; y++ {
		for x := p.X - radius - 1; x <= p.X+radius+1; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			d := math.Hypot(float64(x-p.X), float64(y-p.Y))
			if d <= outer && d > inner {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

// DrawText draws text with its top-left corner at (x, y).
func DrawText(img *image.NRGBA, x, y int, text string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + labelFace.Metrics().Ascent},
	}
	d.DrawString(text)
}

// AnnotateFrame returns a copy of img marked with the frame's ring, its
// 1-based index next to the ring, and its distance from the initial point.
func AnnotateFrame(img image.Image, p imaging.Point, index int, distance float64, unit string, c color.NRGBA) *image.NRGBA {
	out := imgio.Clone(img)
	DrawRing(out, p, RingRadius, RingWidth, c)
	DrawText(out, p.X+LabelOffset, p.Y, fmt.Sprint(index), c)
	DrawText(out, TextMargin, TextMargin, fmt.Sprintf("Distance from Initial Point: %.2f %s", distance, unit), c)
	return out
}

// Composite returns a copy of base with a ring and 1-based index for every
// point. Distances are not drawn.
func Composite(base image.Image, points []imaging.Point, c color.NRGBA) *image.NRGBA {
	out := imgio.Clone(base)
	for i, p := range points {
		DrawRing(out, p, RingRadius, RingWidth, c)
		DrawText(out, p.X+LabelOffset, p.Y, fmt.Sprint(i+1), c)
	}
	return out
}
