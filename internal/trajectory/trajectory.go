// Package trajectory converts a sequence of marker positions into physical
// displacements.
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/markertrack/internal/imaging"
)

var (
	// ErrMalformedSequence is returned for an empty point sequence.
	ErrMalformedSequence = errors.New("malformed sequence")

	// ErrInvalidScale is returned when the scale is not a positive finite number.
	ErrInvalidScale = errors.New("invalid scale")
)

// Sample is one frame's position and its distances in physical units.
type Sample struct {
	Index         int           `json:"index"`
	Point         imaging.Point `json:"point"`
	FromReference float64       `json:"from_reference"`
	FromPrevious  float64       `json:"from_previous"`
}

// Trajectory is the marker path across a frame sequence.
//
// Samples has one entry per input point, in input order. The first sample is
// the reference and has both distances equal to zero.
type Trajectory struct {
	Scale   float64  `json:"scale"`
	Samples []Sample `json:"samples"`
}

// CheckScale reports ErrInvalidScale unless scale is a positive finite number.
func CheckScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: scale must be positive and finite, got %v", ErrInvalidScale, scale)
	}
	return nil
}

// Build computes the trajectory of points with the given scale in physical
// units per pixel.
func Build(points []imaging.Point, scale float64) (Trajectory, error) {
	if len(points) == 0 {
		return Trajectory{}, fmt.Errorf("%w: no points", ErrMalformedSequence)
	}
	if err := CheckScale(scale); err != nil {
		return Trajectory{}, err
	}

	ref := points[0]
	samples := make([]Sample, len(points))
	for i, p := range points {
		s := Sample{
			Index:         i,
			Point:         p,
			FromReference: imaging.Distance(ref, p) * scale,
		}
		if i > 0 {
			s.FromPrevious = imaging.Distance(points[i-1], p) * scale
		}
		samples[i] = s
	}

	return Trajectory{Scale: scale, Samples: samples}, nil
}

// Len returns the number of samples.
func (t Trajectory) Len() int {
	return len(t.Samples)
}

// Total returns the path length, the sum of all frame-to-frame distances.
func (t Trajectory) Total() float64 {
	var sum float64
	for _, s := range t.Samples {
		sum += s.FromPrevious
	}
	return sum
}

// MaxExcursion returns the largest distance from the reference point.
func (t Trajectory) MaxExcursion() float64 {
	var m float64
	for _, s := range t.Samples {
		m = math.Max(m, s.FromReference)
	}
	return m
}
