// Package pipeline measures marker displacement across a batch of frames.
//
// # Stages
//
// Each frame is processed independently:
//
//  1. Detect the reference surface (detection.DetectQuadrilateral)
//  2. Rectify the frame onto it (rectify.Rectify)
//  3. Locate the marker (imaging.LocateMarkerOK)
//
// When stage 1 or 2 fails the frame falls back to the original image and the
// FrameResult records OutcomeFallbackOriginal. The frame is still measured, so
// the trajectory always has one sample per frame.
//
// After every frame finishes, the trajectory is built over the ordered points.
//
// # I/O Boundary
//
// ProcessFrame and Measure work on in-memory images only. ListFrames,
// LoadBatch and Run read from disk. Writing the report belongs to the
// report package.
//
// # Concurrency
//
// Frames are processed by a bounded errgroup; results land in a slice indexed
// by input position, so output order never depends on scheduling.
package pipeline
