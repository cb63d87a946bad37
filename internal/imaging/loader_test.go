package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-colour PNG into dir and returns its path.
func createTestImage(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, t.TempDir(), "frame.png", 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load should return the cached frame")
	}

	r, g, b, _ := img1.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("pixel colour: got (%d,%d,%d), want (255,0,0)", r>>8, g>>8, b>>8)
	}
}

func TestImageCache_LoadMissingFile(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
	if cache.Len() != 0 {
		t.Errorf("failed load should not populate the cache, got %d entries", cache.Len())
	}
}

func TestImageCache_LoadInvalidData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewImageCache().Load(path); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	cache := NewImageCache()
	p1 := createTestImage(t, dir, "a.png", 10, 10, color.White)
	p2 := createTestImage(t, dir, "b.png", 10, 10, color.Black)

	if _, err := cache.Load(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(p2); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", cache.Len())
	}

	cache.Evict(p1)
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d entries, want 1", cache.Len())
	}

	cache.Evict("never-loaded.png")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear: got %d entries, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentLoad(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, t.TempDir(), "frame.png", 32, 32, color.White)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestIsFrameFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"frame_001.png", true},
		{"frame_001.PNG", true},
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"scan.tif", true},
		{"scan.tiff", true},
		{"frame.bmp", true},
		{"anim.gif", true},
		{"distances.csv", false},
		{"notes.txt", false},
		{"no_extension", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsFrameFile(tt.path); got != tt.want {
				t.Errorf("IsFrameFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOpen_RejectsUnknownExtension(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "data.csv")); err == nil {
		t.Error("expected error for non-image extension")
	}
}

func TestToNRGBA(t *testing.T) {
	n := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if ToNRGBA(n) != n {
		t.Error("ToNRGBA should return an NRGBA at origin unchanged")
	}

	rgba := image.NewRGBA(image.Rect(2, 3, 6, 8))
	out := ToNRGBA(rgba)
	if out.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Errorf("bounds: got %v, want (0,0)-(4,5)", out.Bounds())
	}
}

func TestLoadFrameInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, t.TempDir(), "frame.png", 64, 48, color.White)

	info, err := LoadFrameInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadFrameInfo failed: %v", err)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %q, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d, want > 0", info.FileSizeBytes)
	}
}
