package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/markertrack/internal/imaging"
	"github.com/ironsheep/markertrack/internal/trajectory"
)

// FrameError is a per-file I/O failure.
type FrameError struct {
	Name string
	Op   string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// ListFrames returns the paths of the image files directly inside dir,
// sorted by file name.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	// os.ReadDir returns entries sorted by file name.
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsFrameFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// LoadBatch decodes paths concurrently, keeping their order.
//
// Files that fail to decode are returned as FrameErrors and left out of the
// frames. If cache is nil every file is decoded directly.
func LoadBatch(ctx context.Context, paths []string, cache *imaging.ImageCache, workers int) ([]Frame, []*FrameError, error) {
	if workers < 1 {
		workers = 1
	}

	frames := make([]*Frame, len(paths))
	failures := make([]*FrameError, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name := filepath.Base(path)

			var (
				img *image.NRGBA
				err error
			)
			if cache != nil {
				img, err = cache.Load(path)
			} else {
				img, err = imaging.Open(path)
			}
			if err != nil {
				failures[i] = &FrameError{Name: name, Op: "decode", Err: err}
				return nil
			}
			frames[i] = &Frame{Name: name, Image: img}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		out     []Frame
		skipped []*FrameError
	)
	for i := range paths {
		if frames[i] != nil {
			out = append(out, *frames[i])
		}
		if failures[i] != nil {
			skipped = append(skipped, failures[i])
		}
	}
	return out, skipped, nil
}

// Run lists, decodes and measures every frame in cfg.InputDir.
//
// It fails with ErrEmptyBatch when the directory holds no decodable frames.
// Undecodable files are logged and listed in Result.Skipped.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	logger := cfg.logger()
	if err := trajectory.CheckScale(cfg.Scale); err != nil {
		return nil, err
	}

	paths, err := ListFrames(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyBatch, cfg.InputDir)
	}

	frames, skipped, err := LoadBatch(ctx, paths, nil, cfg.workers())
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		logger.Error("skipping unreadable frame", "file", s.Name, "error", s.Err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s: all %d files failed to decode", ErrEmptyBatch, cfg.InputDir, len(skipped))
	}

	res, err := Measure(ctx, frames, cfg)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	return res, nil
}
