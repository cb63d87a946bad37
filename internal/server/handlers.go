package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ironsheep/markertrack/internal/detection"
	"github.com/ironsheep/markertrack/internal/imaging"
	"github.com/ironsheep/markertrack/internal/pipeline"
	"github.com/ironsheep/markertrack/internal/rectify"
	"github.com/ironsheep/markertrack/internal/report"
	"github.com/ironsheep/markertrack/internal/trajectory"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_info", "marker_locate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads frames from cache as needed
//  4. Calls the detection/rectify/pipeline functions
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frame Information
	case "frame_info":
		return s.handleFrameInfo(args)

	// Reference Surface
	case "surface_detect":
		return s.handleSurfaceDetect(args)
	case "surface_rectify":
		return s.handleSurfaceRectify(args)
	case "surface_edges":
		return s.handleSurfaceEdges(args)

	// Marker
	case "marker_locate":
		return s.handleMarkerLocate(args)
	case "marker_displacement":
		return s.handleMarkerDisplacement(args)

	// Batch Measurement
	case "trajectory_measure":
		return s.handleTrajectoryMeasure(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// boolOr returns *b, or def when the argument was omitted.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// === Frame Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

// === Reference Surface Handlers ===

type surfaceDetectResult struct {
	Found  bool   `json:"found"`
	Reason string `json:"reason,omitempty"`
	*detection.SurfaceResult
}

func (s *Server) handleSurfaceDetect(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := detection.DetectSurface(img)
	out := &surfaceDetectResult{Found: err == nil, SurfaceResult: res}
	if err != nil {
		if !errors.Is(err, detection.ErrQuadNotFound) {
			return nil, err
		}
		out.Reason = err.Error()
	}
	return out, nil
}

type surfaceRectifyResult struct {
	Found  bool                     `json:"found"`
	Reason string                   `json:"reason,omitempty"`
	Quad   *detection.Quadrilateral `json:"quad,omitempty"`
	*imaging.EncodedImage
}

func (s *Server) handleSurfaceRectify(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	quad, err := detection.DetectQuadrilateral(img)
	if err != nil {
		if errors.Is(err, detection.ErrQuadNotFound) {
			return &surfaceRectifyResult{Reason: err.Error()}, nil
		}
		return nil, err
	}

	frame, err := rectify.Rectify(img, *quad)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(frame.Image)
	if err != nil {
		return nil, err
	}
	return &surfaceRectifyResult{Found: true, Quad: quad, EncodedImage: enc}, nil
}

type surfaceEdgesResult struct {
	EdgePixels int `json:"edge_pixels"`
	*imaging.EncodedImage
}

func (s *Server) handleSurfaceEdges(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	edges := imaging.Canny(img, detection.CannyLow, detection.CannyHigh)
	count := 0
	for _, v := range edges.Pix {
		if v == imaging.EdgeOn {
			count++
		}
	}

	enc, err := imaging.EncodePNG(edges)
	if err != nil {
		return nil, err
	}
	return &surfaceEdgesResult{EdgePixels: count, EncodedImage: enc}, nil
}

// === Marker Handlers ===

type markerLocateArgs struct {
	Path    string `json:"path"`
	Rectify *bool  `json:"rectify"`
}

type markerLocateResult struct {
	Point   imaging.Point            `json:"point"`
	Score   float64                  `json:"score"`
	Outcome pipeline.Outcome         `json:"outcome"`
	Reason  string                   `json:"reason,omitempty"`
	Quad    *detection.Quadrilateral `json:"quad,omitempty"`
	Width   int                      `json:"frame_width"`
	Height  int                      `json:"frame_height"`
}

func (s *Server) locate(path string, rect bool) (*markerLocateResult, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	res := pipeline.ProcessFrame(img, pipeline.Options{
		Rectify: rect,
		Logger:  s.logger.With("frame", filepath.Base(path)),
	})

	out := &markerLocateResult{
		Point:   res.Point,
		Score:   res.Score,
		Outcome: res.Outcome,
		Quad:    res.Quad,
		Width:   res.Measured.Bounds().Dx(),
		Height:  res.Measured.Bounds().Dy(),
	}
	if res.Reason != nil {
		out.Reason = res.Reason.Error()
	}
	return out, nil
}

func (s *Server) handleMarkerLocate(args json.RawMessage) (interface{}, error) {
	var a markerLocateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.locate(a.Path, boolOr(a.Rectify, true))
}

type markerDisplacementArgs struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Scale   float64 `json:"scale"`
	Rectify *bool   `json:"rectify"`
}

type markerDisplacementResult struct {
	From *markerLocateResult `json:"from"`
	To   *markerLocateResult `json:"to"`
	imaging.DistanceResult
	Distance float64 `json:"distance"`
}

func (s *Server) handleMarkerDisplacement(args json.RawMessage) (interface{}, error) {
	var a markerDisplacementArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := trajectory.CheckScale(a.Scale); err != nil {
		return nil, err
	}
	rect := boolOr(a.Rectify, true)

	from, err := s.locate(a.From, rect)
	if err != nil {
		return nil, err
	}
	to, err := s.locate(a.To, rect)
	if err != nil {
		return nil, err
	}

	d := imaging.MeasureDistance(from.Point, to.Point)
	return &markerDisplacementResult{
		From:           from,
		To:             to,
		DistanceResult: d,
		Distance:       d.DistancePixels * a.Scale,
	}, nil
}

// === Batch Measurement Handlers ===

type trajectoryMeasureArgs struct {
	Dir         string  `json:"dir"`
	Scale       float64 `json:"scale"`
	Rectify     *bool   `json:"rectify"`
	Unit        string  `json:"unit"`
	WriteReport bool    `json:"write_report"`
	OutputDir   string  `json:"output_dir"`
}

type trajectoryMeasureResult struct {
	RunID        string       `json:"run_id"`
	Frames       int          `json:"frames"`
	Fallbacks    int          `json:"fallbacks"`
	Skipped      []string     `json:"skipped,omitempty"`
	Unit         string       `json:"unit"`
	Total        float64      `json:"total_distance"`
	MaxExcursion float64      `json:"max_excursion"`
	Rows         []report.Row `json:"rows"`
	ReportDir    string       `json:"report_dir,omitempty"`
	ReportErrors []string     `json:"report_errors,omitempty"`
}

func (s *Server) handleTrajectoryMeasure(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a trajectoryMeasureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := trajectory.CheckScale(a.Scale); err != nil {
		return nil, err
	}
	if a.Unit == "" {
		a.Unit = "mm"
	}

	paths, err := pipeline.ListFrames(a.Dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", pipeline.ErrEmptyBatch, a.Dir)
	}

	frames, skipped, err := pipeline.LoadBatch(ctx, paths, s.cache, runtime.NumCPU())
	// A batch can be far larger than the frames inspected one at a time.
	defer func() {
		for _, p := range paths {
			s.cache.Evict(p)
		}
	}()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s: no decodable frames", pipeline.ErrEmptyBatch, a.Dir)
	}

	res, err := pipeline.Measure(ctx, frames, pipeline.Config{
		Scale:   a.Scale,
		Rectify: boolOr(a.Rectify, true),
		Logger:  s.logger,
	})
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped

	out := &trajectoryMeasureResult{
		RunID:        res.RunID,
		Frames:       len(res.Frames),
		Fallbacks:    res.Fallbacks(),
		Unit:         a.Unit,
		Total:        res.Trajectory.Total(),
		MaxExcursion: res.Trajectory.MaxExcursion(),
		Rows:         report.Rows(res),
	}
	for _, sk := range skipped {
		out.Skipped = append(out.Skipped, sk.Error())
	}

	if a.WriteReport {
		dir := a.OutputDir
		if dir == "" {
			dir = filepath.Join(a.Dir, "annotated")
		}
		e := &report.Emitter{Dir: dir, Unit: a.Unit, Logger: s.logger}
		out.ReportDir = dir
		if err := e.Emit(res); err != nil {
			out.ReportErrors = append(out.ReportErrors, err.Error())
		}
	}
	return out, nil
}
