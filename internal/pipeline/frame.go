package pipeline

import (
	"image"
	"log/slog"

	"github.com/ironsheep/markertrack/internal/detection"
	"github.com/ironsheep/markertrack/internal/imaging"
	"github.com/ironsheep/markertrack/internal/rectify"
)

// Outcome records which image a frame's marker was located in.
type Outcome int

const (
	// OutcomeSkipped means rectification was disabled; the original was used.
	OutcomeSkipped Outcome = iota
	// OutcomeRectified means the reference surface was found and removed.
	OutcomeRectified
	// OutcomeFallbackOriginal means rectification was attempted and failed,
	// so the unrectified original was used.
	OutcomeFallbackOriginal
)

// String returns the outcome name used in logs and tool results.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRectified:
		return "rectified"
	case OutcomeFallbackOriginal:
		return "fallback_original"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Options controls ProcessFrame.
type Options struct {
	Rectify bool
	Logger  *slog.Logger
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Index int    `json:"index"`
	Name  string `json:"name"`

	Outcome Outcome `json:"outcome"`

	// Reason is why rectification fell back. Nil unless Outcome is
	// OutcomeFallbackOriginal.
	Reason error `json:"-"`

	// Quad is the detected reference surface, set when Outcome is
	// OutcomeRectified.
	Quad *detection.Quadrilateral `json:"quad,omitempty"`

	// Measured is the image the marker was located in: the rectified frame
	// or the original. It must not be modified.
	Measured *image.NRGBA `json:"-"`

	Point imaging.Point `json:"point"`
	Score float64       `json:"score"`
}

// ProcessFrame runs detect, rectify and locate on a single frame.
//
// Detection or rectification failure is not an error: the frame falls back to
// the original image, a warning is logged and the outcome records it. img is
// never modified.
func ProcessFrame(img image.Image, opts Options) FrameResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src := imaging.ToNRGBA(img)
	res := FrameResult{Outcome: OutcomeSkipped, Measured: src}

	if opts.Rectify {
		quad, frame, err := rectifyFrame(src)
		if err != nil {
			logger.Warn("rectification failed, using original frame", "error", err)
			res.Outcome = OutcomeFallbackOriginal
			res.Reason = err
		} else {
			res.Outcome = OutcomeRectified
			res.Quad = quad
			res.Measured = frame.Image
		}
	}

	marker, _ := imaging.LocateMarkerOK(res.Measured)
	res.Point = marker.Point
	res.Score = marker.Score

	logger.Debug("frame processed",
		"outcome", res.Outcome,
		"point", res.Point.String(),
		"score", res.Score,
	)
	return res
}

func rectifyFrame(src *image.NRGBA) (*detection.Quadrilateral, *rectify.Frame, error) {
	quad, err := detection.DetectQuadrilateral(src)
	if err != nil {
		return nil, nil, err
	}
	frame, err := rectify.Rectify(src, *quad)
	if err != nil {
		return nil, nil, err
	}
	return quad, frame, nil
}
