package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/markertrack/internal/imaging"
	"github.com/ironsheep/markertrack/internal/trajectory"
)

// ErrEmptyBatch is returned when a run has no frames to measure.
var ErrEmptyBatch = errors.New("no input frames")

// Config is the explicit configuration of a measurement run.
type Config struct {
	// InputDir is the frame directory read by Run. Measure ignores it.
	InputDir string

	// Scale is the number of physical units per pixel.
	Scale float64

	// Rectify enables reference-surface detection and perspective removal.
	Rectify bool

	// Workers bounds the number of frames processed at once.
	// Values below 1 mean runtime.NumCPU().
	Workers int

	// Logger receives run progress. Nil means slog.Default().
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Frame is a named in-memory input image.
type Frame struct {
	Name  string
	Image image.Image
}

// Result is a completed measurement run.
type Result struct {
	RunID string `json:"run_id"`

	// Frames has one entry per measured frame, in input order.
	Frames []FrameResult `json:"frames"`

	Trajectory trajectory.Trajectory `json:"trajectory"`

	// Skipped lists input files that could not be decoded. They are not
	// frames and have no row in the report.
	Skipped []*FrameError `json:"-"`
}

// Points returns the located marker positions in frame order.
func (r *Result) Points() []imaging.Point {
	pts := make([]imaging.Point, len(r.Frames))
	for i, f := range r.Frames {
		pts[i] = f.Point
	}
	return pts
}

// Fallbacks returns the number of frames that fell back to the original image.
func (r *Result) Fallbacks() int {
	n := 0
	for _, f := range r.Frames {
		if f.Outcome == OutcomeFallbackOriginal {
			n++
		}
	}
	return n
}

// Measure processes frames concurrently and builds the trajectory.
//
// Frame order is preserved. A frame whose reference surface cannot be found
// still produces a result. Cancelling ctx stops frames that have not started
// and Measure returns the context error.
func Measure(ctx context.Context, frames []Frame, cfg Config) (*Result, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := trajectory.CheckScale(cfg.Scale); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := cfg.logger().With("run_id", runID)
	logger.Info("measuring frames", "frames", len(frames), "rectify", cfg.Rectify, "workers", cfg.workers())

	results := make([]FrameResult, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())

	for i, f := range frames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := ProcessFrame(f.Image, Options{
				Rectify: cfg.Rectify,
				Logger:  logger.With("frame", f.Name),
			})
			r.Index = i
			r.Name = f.Name
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Frames: results}

	traj, err := trajectory.Build(res.Points(), cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("build trajectory: %w", err)
	}
	res.Trajectory = traj

	logger.Info("measurement complete",
		"frames", len(results),
		"fallbacks", res.Fallbacks(),
		"max_excursion", traj.MaxExcursion(),
	)
	return res, nil
}
