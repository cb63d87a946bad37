package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of loaded frames to avoid redundant disk reads.
//
// The cache stores decoded frames keyed by their file path. Once a frame is
// loaded, subsequent Load() calls for the same path return the cached copy
// without disk I/O. Cached frames are shared between callers and must be
// treated as read-only.
//
// # Memory Management
//
// Cached frames remain in memory until explicitly removed via Evict() or Clear().
// A batch run over a large directory should Evict each frame once it has been
// measured.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.NRGBA),
	}
}

// Load retrieves a frame from the cache or loads it from disk if not cached.
//
// The frame is decoded with Open, so EXIF orientation is applied and the
// returned image is always 8-bit NRGBA with bounds starting at (0,0).
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all frames from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.NRGBA)
	c.mu.Unlock()
}

// Evict removes a specific frame from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Open decodes an image file into an 8-bit NRGBA raster.
//
// Camera photos frequently carry an EXIF orientation tag; it is applied here so
// that pixel coordinates match what a viewer displays.
func Open(path string) (*image.NRGBA, error) {
	if !IsFrameFile(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return ToNRGBA(img), nil
}

// ToNRGBA returns img as an *image.NRGBA with bounds starting at (0,0).
// If img already is one, it is returned as-is; otherwise a copy is made.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// IsFrameFile reports whether path has an extension of a decodable image format
// (png, jpg/jpeg, gif, bmp, tif/tiff).
func IsFrameFile(path string) bool {
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}

// FrameInfo contains metadata about a frame file.
type FrameInfo struct {
	// Width is the image width in pixels after orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels after orientation is applied.
	Height int `json:"height"`

	// Format is the format detected from the file extension, e.g. "png" or "jpeg".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadFrameInfo loads a frame through the cache and returns its metadata.
func LoadFrameInfo(cache *ImageCache, path string) (*FrameInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	bounds := img.Bounds()
	return &FrameInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
