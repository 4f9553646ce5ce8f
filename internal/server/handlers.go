package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/color-probe-mcp/internal/calibration"
	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
	"github.com/ironsheep/color-probe-mcp/internal/imaging"
	"github.com/ironsheep/color-probe-mcp/internal/sampling"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "color_measure_point").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.debugf("Tool %s failed after %v: %v", params.Name, time.Since(start), err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.debugf("Tool %s completed in %v", params.Name, time.Since(start))

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
//  3. Loads images from cache as needed
//  4. Takes one calibration snapshot and calls into sampling
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Measurement
	case "color_measure_point":
		return s.handleColorMeasurePoint(args)
	case "color_measure_points":
		return s.handleColorMeasurePoints(args)
	case "color_measure_region":
		return s.handleColorMeasureRegion(args)

	// Calibration
	case "calibration_add":
		return s.handleCalibrationAdd(args)
	case "calibration_clear":
		return s.handleCalibrationClear(args)
	case "calibration_status":
		return s.handleCalibrationStatus(args)

	// Analysis Helpers
	case "color_difference":
		return s.handleColorDifference(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) windowSize(requested int) int {
	if requested == 0 {
		return s.cfg.WindowSize
	}
	return requested
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Measurement Handlers ===

type colorMeasurePointArgs struct {
	Path       string `json:"path"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	WindowSize int    `json:"window_size"`
}

func (s *Server) handleColorMeasurePoint(args json.RawMessage) (interface{}, error) {
	var a colorMeasurePointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Source(a.Path)
	if err != nil {
		return nil, err
	}
	return s.point.MeasureAt(src, a.X, a.Y, s.windowSize(a.WindowSize), s.calibration.Snapshot())
}

type colorMeasurePointsArgs struct {
	Path       string            `json:"path"`
	Points     []sampling.Target `json:"points"`
	WindowSize int               `json:"window_size"`
}

// MeasurePointsResult is returned by color_measure_points.
type MeasurePointsResult struct {
	Samples []sampling.LabeledResult `json:"samples"`
}

func (s *Server) handleColorMeasurePoints(args json.RawMessage) (interface{}, error) {
	var a colorMeasurePointsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, errors.New("points must not be empty")
	}
	src, err := s.cache.Source(a.Path)
	if err != nil {
		return nil, err
	}

	samples, err := s.point.MeasureMany(context.Background(), src, a.Points, s.windowSize(a.WindowSize), s.calibration.Snapshot(), s.cfg.MaxParallel)
	if err != nil {
		return nil, err
	}
	return &MeasurePointsResult{Samples: samples}, nil
}

type colorMeasureRegionArgs struct {
	Path    string           `json:"path"`
	Polygon []sampling.Point `json:"polygon"`
}

func (s *Server) handleColorMeasureRegion(args json.RawMessage) (interface{}, error) {
	var a colorMeasureRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Source(a.Path)
	if err != nil {
		return nil, err
	}
	return s.region.MeasureInRegion(src, a.Polygon, s.calibration.Snapshot())
}

// === Calibration Handlers ===

type calibrationAddArgs struct {
	Kind       string           `json:"kind"`
	LinearRGB  []float64        `json:"linear_rgb,omitempty"`
	Path       string           `json:"path,omitempty"`
	X          *int             `json:"x,omitempty"`
	Y          *int             `json:"y,omitempty"`
	WindowSize int              `json:"window_size,omitempty"`
	Polygon    []sampling.Point `json:"polygon,omitempty"`
}

// CalibrationStatus describes the session calibration.
type CalibrationStatus struct {
	Ready  bool                `json:"ready"`
	Points []calibration.Point `json:"points"`
}

func newCalibrationStatus(snap calibration.Snapshot) *CalibrationStatus {
	return &CalibrationStatus{
		Ready:  snap.Ready(),
		Points: snap.Points(),
	}
}

func (s *Server) handleCalibrationAdd(args json.RawMessage) (interface{}, error) {
	var a calibrationAddArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	kind, err := calibration.ParseKind(a.Kind)
	if err != nil {
		return nil, err
	}

	measured, err := s.referenceColor(a)
	if err != nil {
		return nil, err
	}
	if err := s.calibration.Add(kind, measured); err != nil {
		return nil, err
	}
	s.debugf("Calibration %s set to %+v", kind, measured)
	return newCalibrationStatus(s.calibration.Snapshot()), nil
}

// referenceColor resolves the measured color of a reference patch. Patches
// measured from an image are always read uncalibrated.
func (s *Server) referenceColor(a calibrationAddArgs) (colorspace.Linear, error) {
	if a.LinearRGB != nil {
		if len(a.LinearRGB) != 3 {
			return colorspace.Linear{}, fmt.Errorf("linear_rgb needs 3 values, got %d", len(a.LinearRGB))
		}
		return colorspace.Linear{R: a.LinearRGB[0], G: a.LinearRGB[1], B: a.LinearRGB[2]}, nil
	}
	if a.Path == "" {
		return colorspace.Linear{}, errors.New("either linear_rgb or path is required")
	}

	src, err := s.cache.Source(a.Path)
	if err != nil {
		return colorspace.Linear{}, err
	}

	var res sampling.Result
	switch {
	case len(a.Polygon) > 0:
		res, err = s.region.MeasureInRegion(src, a.Polygon, calibration.Snapshot{})
	case a.X != nil && a.Y != nil:
		res, err = s.point.MeasureAt(src, *a.X, *a.Y, s.windowSize(a.WindowSize), calibration.Snapshot{})
	default:
		return colorspace.Linear{}, errors.New("path needs either x and y or a polygon")
	}
	if err != nil {
		return colorspace.Linear{}, err
	}
	return res.Linear, nil
}

func (s *Server) handleCalibrationClear(args json.RawMessage) (interface{}, error) {
	s.calibration.Clear()
	s.debugf("Calibration cleared")
	return newCalibrationStatus(s.calibration.Snapshot()), nil
}

func (s *Server) handleCalibrationStatus(args json.RawMessage) (interface{}, error) {
	return newCalibrationStatus(s.calibration.Snapshot()), nil
}

// === Analysis Helper Handlers ===

type colorDifferenceArgs struct {
	Color1 string `json:"color1"`
	Color2 string `json:"color2"`
}

// ColorDifferenceResult is returned by color_difference.
type ColorDifferenceResult struct {
	Color1  string  `json:"color1"`
	Color2  string  `json:"color2"`
	DeltaE  float64 `json:"delta_e"`
	Verdict string  `json:"verdict"`
}

func (s *Server) handleColorDifference(args json.RawMessage) (interface{}, error) {
	var a colorDifferenceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c1, err := colorspace.ParseHex(a.Color1)
	if err != nil {
		return nil, fmt.Errorf("color1: %w", err)
	}
	c2, err := colorspace.ParseHex(a.Color2)
	if err != nil {
		return nil, fmt.Errorf("color2: %w", err)
	}

	de := colorspace.DeltaE2000(c1, c2)
	return &ColorDifferenceResult{
		Color1:  colorspace.Hex(c1),
		Color2:  colorspace.Hex(c2),
		DeltaE:  de,
		Verdict: verdict(de),
	}, nil
}

func verdict(de float64) string {
	switch {
	case de < 1:
		return "imperceptible"
	case de < 2:
		return "barely noticeable"
	case de < 10:
		return "noticeable"
	default:
		return "different colors"
	}
}
