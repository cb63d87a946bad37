package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRedDominance(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    float64
	}{
		{"pure red", 255, 0, 0, 255},
		{"pure cyan", 0, 255, 255, -255},
		{"white", 255, 255, 255, 0},
		{"black", 0, 0, 0, 0},
		{"odd channel sum keeps the half", 10, 1, 2, 8.5},
		{"green and blue would overflow uint8", 200, 200, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedDominance(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("RedDominance(%d,%d,%d) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestLocateMarker_SingleRedPixel(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	img.Set(37, 62, color.NRGBA{255, 0, 0, 255})

	got := LocateMarker(img)
	if got != (Point{X: 37, Y: 62}) {
		t.Errorf("LocateMarker: got %v, want (37, 62)", got)
	}
}

func TestLocateMarker_Deterministic(t *testing.T) {
	img := createInMemoryImage(40, 30, color.NRGBA{90, 120, 60, 255})
	img.Set(5, 7, color.NRGBA{200, 40, 40, 255})
	img.Set(30, 20, color.NRGBA{180, 30, 30, 255})

	first := LocateMarker(img)
	second := LocateMarker(img)
	if first != second {
		t.Errorf("LocateMarker not deterministic: %v then %v", first, second)
	}
}

func TestLocateMarker_TieBreakRowMajor(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point
		expect Point
	}{
		{"same row, earlier column wins", Point{X: 8, Y: 4}, Point{X: 3, Y: 4}, Point{X: 3, Y: 4}},
		{"earlier row wins over earlier column", Point{X: 1, Y: 9}, Point{X: 15, Y: 2}, Point{X: 15, Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(20, 20, color.Black)
			img.Set(tt.a.X, tt.a.Y, color.NRGBA{250, 10, 10, 255})
			img.Set(tt.b.X, tt.b.Y, color.NRGBA{250, 10, 10, 255})

			if got := LocateMarker(img); got != tt.expect {
				t.Errorf("LocateMarker: got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestLocateMarker_UniformImage(t *testing.T) {
	img := createInMemoryImage(10, 10, color.NRGBA{128, 128, 128, 255})

	if got := LocateMarker(img); got != (Point{}) {
		t.Errorf("uniform image: got %v, want (0, 0)", got)
	}
}

func TestLocateMarker_FloatScoreNotTruncated(t *testing.T) {
	img := createInMemoryImage(2, 1, color.Black)
	// Scores 100 - 1/2 = 99.5 and 100 - 0 = 100 differ only after the decimal point
	// of the channel average.
	img.Set(0, 0, color.NRGBA{100, 1, 0, 255})
	img.Set(1, 0, color.NRGBA{100, 0, 0, 255})

	res, ok := LocateMarkerOK(img)
	if !ok {
		t.Fatal("LocateMarkerOK reported empty image")
	}
	if res.Point != (Point{X: 1, Y: 0}) {
		t.Errorf("got %v, want (1, 0)", res.Point)
	}
	if res.Score != 100 {
		t.Errorf("Score: got %v, want 100", res.Score)
	}
}

func TestLocateMarker_GenericImageType(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(11, 3, color.RGBA{255, 0, 0, 255})

	if got := LocateMarker(img); got != (Point{X: 11, Y: 3}) {
		t.Errorf("RGBA image: got %v, want (11, 3)", got)
	}
}

func TestLocateMarker_OffsetBounds(t *testing.T) {
	base := createInMemoryImage(50, 50, color.White)
	base.Set(30, 25, color.NRGBA{255, 0, 0, 255})
	sub := base.SubImage(image.Rect(20, 20, 40, 40))

	if got := LocateMarker(sub); got != (Point{X: 10, Y: 5}) {
		t.Errorf("sub-image: got %v, want (10, 5) relative to its origin", got)
	}
}

func TestLocateMarkerOK_EmptyImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 0, 0))

	res, ok := LocateMarkerOK(img)
	if ok {
		t.Error("expected ok=false for empty image")
	}
	if res.Point != (Point{}) {
		t.Errorf("empty image: got %v, want (0, 0)", res.Point)
	}
}
