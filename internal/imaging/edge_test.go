package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createEdgeTestImage creates a white image with a filled black rectangle
// covering the middle half.
func createEdgeTestImage(width, height int) *image.NRGBA {
	img := createInMemoryImage(width, height, color.White)
	for y := height / 4; y < height*3/4; y++ {
		for x := width / 4; x < width*3/4; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func countEdges(edges *image.Gray) int {
	n := 0
	for _, v := range edges.Pix {
		if v == EdgeOn {
			n++
		}
	}
	return n
}

func TestCanny(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	edges := Canny(img, 50, 150)

	if edges.Bounds().Dx() != 100 || edges.Bounds().Dy() != 100 {
		t.Fatalf("dimensions: got %dx%d, want 100x100", edges.Bounds().Dx(), edges.Bounds().Dy())
	}

	if countEdges(edges) == 0 {
		t.Fatal("expected edges around the rectangle")
	}

	// Edges should hug the rectangle border and stay away from flat regions.
	if edges.GrayAt(50, 50).Y != EdgeOff {
		t.Error("rectangle interior should not be an edge")
	}
	if edges.GrayAt(5, 5).Y != EdgeOff {
		t.Error("background should not be an edge")
	}

	found := false
	for x := 20; x <= 30 && !found; x++ {
		if edges.GrayAt(x, 50).Y == EdgeOn {
			found = true
		}
	}
	if !found {
		t.Error("expected an edge near the left border of the rectangle at x=25")
	}
}

func TestCanny_BinaryOutput(t *testing.T) {
	edges := Canny(createEdgeTestImage(60, 60), 50, 150)

	for i, v := range edges.Pix {
		if v != EdgeOn && v != EdgeOff {
			t.Fatalf("pixel %d has value %d, want 0 or 255", i, v)
		}
	}
}

func TestCanny_UniformImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.NRGBA{128, 128, 128, 255})

	if n := countEdges(Canny(img, 50, 150)); n != 0 {
		t.Errorf("uniform image should have no edges, got %d edge pixels", n)
	}
}

func TestCanny_HigherThresholdsFindFewerEdges(t *testing.T) {
	img := createInMemoryImage(80, 80, color.White)
	// A faint square and a strong square.
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			img.Set(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	for y := 45; y < 70; y++ {
		for x := 45; x < 70; x++ {
			img.Set(x, y, color.Black)
		}
	}

	low := countEdges(Canny(img, 10, 30))
	high := countEdges(Canny(img, 300, 600))

	if low <= high {
		t.Errorf("expected more edges with low thresholds: low=%d high=%d", low, high)
	}
}

func TestCanny_EmptyImage(t *testing.T) {
	edges := Canny(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 50, 150)
	if !edges.Bounds().Empty() {
		t.Errorf("expected empty edge map, got %v", edges.Bounds())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d,%d,%d) = %d, want %d", tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}
