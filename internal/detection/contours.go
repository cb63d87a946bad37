package detection

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is a closed boundary in traversal order. The last point connects
// back to the first.
type Contour []Point

// neighbours in clockwise order on screen (Y grows downward), starting east.
var neighbours = [8]Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

// FindExternalContours returns the outer boundary of every 8-connected
// component of non-zero pixels in mask.
//
// Components are discovered in raster order, so the result order is stable.
// Each boundary is traced with Moore-neighbour tracing starting from the
// component's top-left-most pixel and runs of collinear boundary steps are
// compressed to their endpoints. Holes are not traced.
//
// A component nested inside another component's hole is still returned; its
// area is always smaller than the enclosing contour, so callers selecting the
// largest contour are unaffected.
func FindExternalContours(mask *image.Gray) []Contour {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := func(x, y int) bool {
		if x < 0 || x >= width || y < 0 || y >= height {
			return false
		}
		return mask.Pix[y*mask.Stride+x] != 0
	}

	labelled := make([]bool, width*height)
	contours := make([]Contour, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg(x, y) || labelled[y*width+x] {
				continue
			}
			markComponent(fg, labelled, width, Point{X: x, Y: y})
			contours = append(contours, compressRuns(traceBoundary(fg, Point{X: x, Y: y}, width*height)))
		}
	}

	return contours
}

// markComponent labels all pixels 8-connected to start.
//
// Uses a stack-based approach (not recursive) to avoid deep recursion
// on large components.
func markComponent(fg func(x, y int) bool, labelled []bool, width int, start Point) {
	stack := []Point{start}
	labelled[start.Y*width+start.X] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range neighbours {
			q := Point{X: p.X + d.X, Y: p.Y + d.Y}
			if fg(q.X, q.Y) && !labelled[q.Y*width+q.X] {
				labelled[q.Y*width+q.X] = true
				stack = append(stack, q)
			}
		}
	}
}

// traceBoundary walks the outer boundary clockwise from start, which must be
// the first pixel of its component in raster order.
//
// Tracing stops when the walk returns to start about to repeat its first move
// (Jacob's stopping criterion), so single-pixel-wide structures are traced
// along both sides exactly once.
func traceBoundary(fg func(x, y int) bool, start Point, limit int) Contour {
	contour := Contour{start}

	// next scans clockwise around p beginning at direction from, returning the
	// first foreground neighbour and the direction moved.
	next := func(p Point, from int) (Point, int, bool) {
		for i := 0; i < 8; i++ {
			d := (from + i) % 8
			q := Point{X: p.X + neighbours[d].X, Y: p.Y + neighbours[d].Y}
			if fg(q.X, q.Y) {
				return q, d, true
			}
		}
		return Point{}, 0, false
	}

	// West of the raster-first pixel is background, so the scan may start there.
	first, firstDir, ok := next(start, 4)
	if !ok {
		return contour
	}

	p, dir := first, firstDir
	for steps := 0; steps < 4*limit+8; steps++ {
		if p == start {
			q, _, _ := next(p, searchStart(dir))
			if q == first {
				break
			}
		}
		contour = append(contour, p)

		q, d, _ := next(p, searchStart(dir))
		p, dir = q, d
	}

	return contour
}

// searchStart returns the direction of the background cell examined just
// before moving in direction dir; the next clockwise scan begins there.
func searchStart(dir int) int {
	if dir%2 == 0 {
		return (dir + 6) % 8
	}
	return (dir + 5) % 8
}

// compressRuns drops boundary points that lie strictly inside a straight
// horizontal, vertical, or diagonal run, keeping only the run endpoints.
func compressRuns(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}

	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		prev := c[(i-1+n)%n]
		cur := c[i]
		next := c[(i+1)%n]
		d1 := Point{X: cur.X - prev.X, Y: cur.Y - prev.Y}
		d2 := Point{X: next.X - cur.X, Y: next.Y - cur.Y}
		if d1 != d2 {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		// Every step identical can only happen for degenerate input.
		return c[:1]
	}
	return out
}

// ContourArea returns the absolute area enclosed by the contour using the
// shoelace formula.
func ContourArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(c[i].X)*float64(c[j].Y) - float64(c[j].X)*float64(c[i].Y)
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of the closed contour.
func ArcLength(c Contour) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		length += pointDistance(c[i], c[j])
	}
	return length
}

// LargestContour returns the index of the contour with the greatest area.
// Ties keep the earlier contour. Returns -1 when contours is empty.
func LargestContour(contours []Contour) int {
	best := -1
	bestArea := -1.0
	for i, c := range contours {
		if a := ContourArea(c); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// ApproxPolyDP simplifies a closed contour with the Douglas-Peucker algorithm.
//
// Points whose perpendicular distance from the chord joining their kept
// neighbours is at most epsilon are dropped. The curve is split at two
// mutually distant points before simplification so that the split points are
// real corners rather than an arbitrary starting pixel.
//
// The returned vertices preserve the contour's traversal order.
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	n := len(c)
	if n <= 3 {
		out := make(Contour, n)
		copy(out, c)
		return out
	}

	a := farthestFrom(c, 0)
	b := farthestFrom(c, a)
	if a == b {
		return Contour{c[a]}
	}
	if a > b {
		a, b = b, a
	}

	// Two open chains a..b and b..a (wrapping), each including both ends.
	first := make(Contour, 0, b-a+1)
	first = append(first, c[a:b+1]...)
	second := make(Contour, 0, n-b+a+1)
	second = append(second, c[b:]...)
	second = append(second, c[:a+1]...)

	out := make(Contour, 0, 8)
	out = append(out, simplify(first, epsilon)...)
	out = append(out, simplify(second, epsilon)...)
	return out
}

// simplify runs Douglas-Peucker on an open chain and returns the kept points,
// including the first but excluding the last.
func simplify(chain Contour, epsilon float64) Contour {
	n := len(chain)
	if n < 2 {
		return nil
	}
	if n == 2 {
		return Contour{chain[0]}
	}

	start, end := chain[0], chain[n-1]
	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < n-1; i++ {
		if d := perpendicularDistance(chain[i], start, end); d > maxDist {
			maxDist, maxIdx = d, i
		}
	}

	if maxDist <= epsilon {
		return Contour{start}
	}

	left := simplify(chain[:maxIdx+1], epsilon)
	right := simplify(chain[maxIdx:], epsilon)
	return append(left, right...)
}

// farthestFrom returns the index of the contour point farthest from c[i].
// Ties keep the earliest index.
func farthestFrom(c Contour, i int) int {
	best := i
	bestDist := 0.0
	for j, p := range c {
		if d := pointDistance(c[i], p); d > bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// perpendicularDistance returns the distance from p to the infinite line
// through a and b, or to a when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	norm := math.Hypot(dx, dy)
	if norm < 1e-10 {
		return pointDistance(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / norm
}

func pointDistance(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
