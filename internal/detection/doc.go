// Package detection finds the quadrilateral reference surface in a frame.
//
// The reference surface is the flat sheet or grid behind the marker. Finding its
// four corners lets the rectify package undo the camera's perspective, so that
// marker positions from different frames are measured in the same plane.
//
// # Algorithm Overview
//
//  1. Edge Detection: Canny on a blurred grayscale copy (imaging.Canny)
//  2. Contour Extraction: Moore-neighbour tracing of the outer boundary of
//     every 8-connected edge region
//  3. Selection: the contour enclosing the largest area is the candidate
//  4. Approximation: closed Douglas-Peucker with epsilon at 2% of the
//     contour perimeter collapses near-collinear boundary points
//  5. Acceptance: exactly four vertices, assigned to corners by the
//     sum/difference rule in OrderCorners
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Failure
//
// Detection failure is an expected outcome for frames where the surface is
// occluded or cropped. It is reported as ErrQuadNotFound so callers can fall
// back to the unrectified frame instead of aborting.
package detection
