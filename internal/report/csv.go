package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ironsheep/markertrack/internal/imaging"
	"github.com/ironsheep/markertrack/internal/pipeline"
)

// Row is one line of the distance table.
type Row struct {
	Image         string        `json:"image"`
	Point         imaging.Point `json:"point"`
	FromReference float64       `json:"from_reference"`
	FromPrevious  float64       `json:"from_previous"`
	Outcome       string        `json:"outcome"`
}

// Rows returns one row per measured frame, in frame order.
func Rows(res *pipeline.Result) []Row {
	rows := make([]Row, len(res.Frames))
	for i, f := range res.Frames {
		s := res.Trajectory.Samples[i]
		rows[i] = Row{
			Image:         f.Name,
			Point:         f.Point,
			FromReference: s.FromReference,
			FromPrevious:  s.FromPrevious,
			Outcome:       f.Outcome.String(),
		}
	}
	return rows
}

// Header returns the distance table header for the given unit.
func Header(unit string) []string {
	return []string{
		"Image",
		"Red Point (x, y)",
		fmt.Sprintf("Distance from Initial Point (%s)", unit),
		fmt.Sprintf("Distance from Previous Point (%s)", unit),
	}
}

// WriteCSV writes the header and one record per row with distances to two
// decimal places.
func WriteCSV(w io.Writer, rows []Row, unit string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(unit)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Image,
			r.Point.String(),
			strconv.FormatFloat(r.FromReference, 'f', 2, 64),
			strconv.FormatFloat(r.FromPrevious, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", r.Image, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary prints a human-readable block per frame.
func WriteSummary(w io.Writer, rows []Row, unit string) error {
	for i, r := range rows {
		_, err := fmt.Fprintf(w,
			"Image %d: %s\n  Red Point: %s\n  Distance from Initial Point: %.2f %s\n  Distance from Previous Point: %.2f %s\n",
			i+1, r.Image, r.Point, r.FromReference, unit, r.FromPrevious, unit)
		if err != nil {
			return err
		}
	}
	return nil
}
