// Package imaging provides the pixel-level operations of the measurement pipeline.
//
// This package loads frames from disk, finds edges for surface detection, and
// locates the tracked marker. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: column (0 = leftmost pixel)
//   - Y: row (0 = topmost pixel)
//   - Coordinates returned by LocateMarker are relative to the image origin,
//     so an image whose Bounds().Min is not (0,0) still reports (0,0) for its
//     first pixel.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their input, so they can be called concurrently
// on the same image.
//
// # Marker Scoring
//
// The marker is the pixel with the highest red-dominance score:
//
//	score = R - (G + B) / 2
//
// computed in float64 from 8-bit, non-premultiplied channels. Ties resolve to
// the first pixel in row-major order (top-to-bottom, then left-to-right).
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - File I/O errors during image loading
//   - Files whose extension is not a recognised image format
package imaging
