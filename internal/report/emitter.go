package report

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	imgio "github.com/disintegration/imaging"

	"github.com/ironsheep/markertrack/internal/pipeline"
	"github.com/ironsheep/markertrack/internal/trajectory"
)

// Output file names inside the emitter directory.
const (
	CSVName       = "distances.csv"
	CompositeName = "final_annotated_image.png"
	RectifiedDir  = "rectified"
)

// AnnotatedName returns the file name of the n-th annotated frame (1-based).
func AnnotatedName(n int) string {
	return fmt.Sprintf("annotated_image_%d.png", n)
}

// RectifiedName returns the path, relative to the emitter directory, of the
// rectified copy of the input frame name. The whole input name is kept so
// that f.jpg and f.png do not collide.
func RectifiedName(name string) string {
	return filepath.Join(RectifiedDir, filepath.Base(name)+".png")
}

// Emitter writes the report files for a measurement run.
type Emitter struct {
	// Dir receives every output file. It is created if missing.
	Dir string

	// Unit labels distances, e.g. "mm".
	Unit string

	RingColor color.NRGBA

	// SaveRectified also writes each rectified frame under Dir/rectified.
	SaveRectified bool

	Logger *slog.Logger
}

func (e *Emitter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Emit writes the annotated frames, the composite and the distance table.
//
// A failed file does not stop the others; every failure is returned joined.
func (e *Emitter) Emit(res *pipeline.Result) error {
	if len(res.Frames) == 0 {
		return pipeline.ErrEmptyBatch
	}
	if n := res.Trajectory.Len(); n != len(res.Frames) {
		return fmt.Errorf("%w: %d frames but %d trajectory samples", trajectory.ErrMalformedSequence, len(res.Frames), n)
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := e.logger().With("run_id", res.RunID, "dir", e.Dir)
	unit := e.Unit
	if unit == "" {
		unit = "mm"
	}
	ring := e.RingColor
	if ring == (color.NRGBA{}) {
		ring = DefaultRingColor
	}

	var errs []error
	record := func(name string, err error) {
		if err != nil {
			logger.Error("failed to write report file", "file", name, "error", err)
			errs = append(errs, &pipeline.FrameError{Name: name, Op: "write", Err: err})
		}
	}

	for i, f := range res.Frames {
		name := AnnotatedName(i + 1)
		img := AnnotateFrame(f.Measured, f.Point, i+1, res.Trajectory.Samples[i].FromReference, unit, ring)
		record(name, e.save(img, name))
	}

	composite := Composite(res.Frames[0].Measured, res.Points(), ring)
	record(CompositeName, e.save(composite, CompositeName))

	record(CSVName, e.writeCSV(Rows(res), unit))

	if e.SaveRectified {
		for _, f := range res.Frames {
			if f.Outcome != pipeline.OutcomeRectified {
				continue
			}
			name := RectifiedName(f.Name)
			record(name, e.save(f.Measured, name))
		}
	}

	logger.Info("report written", "frames", len(res.Frames), "failures", len(errs))
	return errors.Join(errs...)
}

func (e *Emitter) save(img image.Image, name string) error {
	path := filepath.Join(e.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return imgio.Save(img, path)
}

func (e *Emitter) writeCSV(rows []Row, unit string) (err error) {
	f, err := os.Create(filepath.Join(e.Dir, CSVName))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, rows, unit)
}
