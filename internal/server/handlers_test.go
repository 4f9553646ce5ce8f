package server

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/ironsheep/color-probe-mcp/internal/calibration"
	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
	"github.com/ironsheep/color-probe-mcp/internal/imaging"
	"github.com/ironsheep/color-probe-mcp/internal/sampling"
)

// writeTestPNG encodes img to a temporary PNG file and returns its path
func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

// createPatchImageFile creates a 100x50 image: a light gray patch on the
// left half and a dark gray patch on the right half.
func createPatchImageFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.RGBA{230, 230, 230, 255})
			} else {
				img.Set(x, y, color.RGBA{30, 30, 30, 255})
			}
		}
	}
	return writeTestPNG(t, img)
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}
	resp := s.handleRequest(req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unmarshals the text content of a successful tools/call
// response into v.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode content %q: %v", text, err)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	var info imaging.ImageInfo
	decodeContent(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("size: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})
	defer os.Remove(imgPath)

	var dims imaging.DimensionsResult
	decodeContent(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("size: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	for _, name := range []string{"image_load", "image_dimensions", "color_measure_point", "color_measure_region"} {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{
				"path":    "/nonexistent/image.png",
				"x":       1,
				"y":       1,
				"polygon": []map[string]float64{{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 10}},
			})
			if resp.Error == nil {
				t.Fatal("expected an error for a missing file")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if resp.Error == nil {
		t.Fatal("expected an error for an unknown tool")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "unknown tool") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	}
	resp := s.handleToolsCall(req)

	if resp.Error == nil {
		t.Fatal("expected an error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_MeasurePoint(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 40, 40, color.RGBA{128, 128, 128, 255})
	defer os.Remove(imgPath)

	var res sampling.Result
	decodeContent(t, callTool(t, s, "color_measure_point", map[string]interface{}{
		"path": imgPath,
		"x":    20,
		"y":    20,
	}), &res)

	if res.Hex != "#808080" {
		t.Errorf("hex: got %s, want #808080", res.Hex)
	}
	if res.Note != sampling.NoteOK {
		t.Errorf("note: got %q, want %q", res.Note, sampling.NoteOK)
	}
	if res.Calibrated {
		t.Error("result should not be calibrated")
	}
	if math.Abs(res.Lab.A) > 0.5 || math.Abs(res.Lab.B) > 0.5 {
		t.Errorf("gray should be neutral, got %+v", res.Lab)
	}
}

func TestHandleToolsCall_MeasurePoint_WindowSize(t *testing.T) {
	// Blue image with a single red pixel at the center
	img := image.NewRGBA(image.Rect(0, 0, 9, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	img.Set(4, 4, color.RGBA{255, 0, 0, 255})
	imgPath := writeTestPNG(t, img)
	defer os.Remove(imgPath)

	tests := []struct {
		name   string
		cfg    Config
		args   map[string]interface{}
		wantFF bool
	}{
		{"explicit window 1", DefaultConfig(), map[string]interface{}{"path": imgPath, "x": 4, "y": 4, "window_size": 1}, true},
		{"configured window 1", Config{LogLevel: "info", WindowSize: 1, MaxParallel: 1}, map[string]interface{}{"path": imgPath, "x": 4, "y": 4}, true},
		{"default window", DefaultConfig(), map[string]interface{}{"path": imgPath, "x": 4, "y": 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWithConfig(tt.cfg)
			var res sampling.Result
			decodeContent(t, callTool(t, s, "color_measure_point", tt.args), &res)
			if got := res.Hex == "#FF0000"; got != tt.wantFF {
				t.Errorf("hex: got %s, want red=%v", res.Hex, tt.wantFF)
			}
		})
	}
}

func TestHandleToolsCall_MeasurePoints(t *testing.T) {
	s := New()
	imgPath := createPatchImageFile(t)
	defer os.Remove(imgPath)

	var out MeasurePointsResult
	decodeContent(t, callTool(t, s, "color_measure_points", map[string]interface{}{
		"path": imgPath,
		"points": []map[string]interface{}{
			{"x": 25, "y": 25, "label": "light"},
			{"x": 75, "y": 25, "label": "dark"},
			{"x": 10, "y": 10},
		},
	}), &out)

	if len(out.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(out.Samples))
	}
	want := []struct {
		label string
		hex   string
	}{
		{"light", "#E6E6E6"},
		{"dark", "#1E1E1E"},
		{"", "#E6E6E6"},
	}
	for i, w := range want {
		if out.Samples[i].Label != w.label {
			t.Errorf("sample %d label: got %q, want %q", i, out.Samples[i].Label, w.label)
		}
		if out.Samples[i].Result.Hex != w.hex {
			t.Errorf("sample %d hex: got %s, want %s", i, out.Samples[i].Result.Hex, w.hex)
		}
	}
}

func TestHandleToolsCall_MeasurePoints_Empty(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 10, 10, color.White)
	defer os.Remove(imgPath)

	resp := callTool(t, s, "color_measure_points", map[string]interface{}{
		"path":   imgPath,
		"points": []map[string]interface{}{},
	})
	if resp.Error == nil {
		t.Fatal("expected an error for empty points")
	}
}

func TestHandleToolsCall_MeasureRegion(t *testing.T) {
	s := New()
	imgPath := createPatchImageFile(t)
	defer os.Remove(imgPath)

	var res sampling.Result
	decodeContent(t, callTool(t, s, "color_measure_region", map[string]interface{}{
		"path": imgPath,
		"polygon": []map[string]float64{
			{"x": 55, "y": 5}, {"x": 95, "y": 5}, {"x": 95, "y": 45}, {"x": 55, "y": 45},
		},
	}), &res)

	if res.Hex != "#1E1E1E" {
		t.Errorf("hex: got %s, want #1E1E1E", res.Hex)
	}
	if res.Quality < 0.9 {
		t.Errorf("quality for a uniform patch: got %.3f", res.Quality)
	}
}

func TestHandleToolsCall_MeasureRegion_TooSmall(t *testing.T) {
	s := New()
	imgPath := createPatchImageFile(t)
	defer os.Remove(imgPath)

	tests := []struct {
		name    string
		polygon []map[string]float64
	}{
		{"two vertices", []map[string]float64{{"x": 1, "y": 1}, {"x": 20, "y": 20}}},
		{"tiny triangle", []map[string]float64{{"x": 10, "y": 10}, {"x": 13, "y": 10}, {"x": 10, "y": 13}}},
		{"outside image", []map[string]float64{{"x": 500, "y": 500}, {"x": 600, "y": 500}, {"x": 600, "y": 600}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "color_measure_region", map[string]interface{}{
				"path":    imgPath,
				"polygon": tt.polygon,
			})
			if resp.Error == nil {
				t.Fatal("expected an error")
			}
			if data, _ := resp.Error.Data.(string); !strings.Contains(data, "selection too small") {
				t.Errorf("Error data: got %v, want selection too small", resp.Error.Data)
			}
		})
	}
}

func TestHandleToolsCall_CalibrateThenMeasure(t *testing.T) {
	s := New()
	imgPath := createPatchImageFile(t)
	defer os.Remove(imgPath)

	// Light patch is the white reference, dark patch is the black one.
	var status CalibrationStatus
	decodeContent(t, callTool(t, s, "calibration_add", map[string]interface{}{
		"kind": "white", "path": imgPath, "x": 25, "y": 25,
	}), &status)
	if status.Ready {
		t.Error("one reference patch should not make the calibration ready")
	}

	decodeContent(t, callTool(t, s, "calibration_add", map[string]interface{}{
		"kind": "black",
		"path": imgPath,
		"polygon": []map[string]float64{
			{"x": 55, "y": 5}, {"x": 95, "y": 5}, {"x": 95, "y": 45}, {"x": 55, "y": 45},
		},
	}), &status)
	if !status.Ready {
		t.Fatal("white and black should make the calibration ready")
	}
	if len(status.Points) != 2 {
		t.Fatalf("points: got %d, want 2", len(status.Points))
	}
	if status.Points[0].Kind != calibration.White || status.Points[1].Kind != calibration.Black {
		t.Errorf("points order: got %v, %v", status.Points[0].Kind, status.Points[1].Kind)
	}

	var light, dark sampling.Result
	decodeContent(t, callTool(t, s, "color_measure_point", map[string]interface{}{"path": imgPath, "x": 10, "y": 10}), &light)
	decodeContent(t, callTool(t, s, "color_measure_point", map[string]interface{}{"path": imgPath, "x": 80, "y": 30}), &dark)

	if !light.Calibrated || !dark.Calibrated {
		t.Error("results should be calibrated")
	}
	if light.Hex != "#FFFFFF" {
		t.Errorf("calibrated light patch: got %s, want #FFFFFF", light.Hex)
	}
	if dark.Hex != "#000000" {
		t.Errorf("calibrated dark patch: got %s, want #000000", dark.Hex)
	}

	// Re-measuring a reference while calibrated must not feed back into it.
	decodeContent(t, callTool(t, s, "calibration_add", map[string]interface{}{
		"kind": "white", "path": imgPath, "x": 25, "y": 25,
	}), &status)
	decodeContent(t, callTool(t, s, "color_measure_point", map[string]interface{}{"path": imgPath, "x": 10, "y": 10}), &light)
	if light.Hex != "#FFFFFF" {
		t.Errorf("after re-adding white: got %s, want #FFFFFF", light.Hex)
	}
}

func TestHandleToolsCall_CalibrationLinearRGB(t *testing.T) {
	s := New()

	var status CalibrationStatus
	decodeContent(t, callTool(t, s, "calibration_add", map[string]interface{}{
		"kind": "grey", "linear_rgb": []float64{0.2, 0.15, 0.1},
	}), &status)

	if len(status.Points) != 1 {
		t.Fatalf("points: got %d, want 1", len(status.Points))
	}
	p := status.Points[0]
	if p.Kind != calibration.Gray {
		t.Errorf("kind: got %v, want gray", p.Kind)
	}
	if p.Measured.R != 0.2 || p.Measured.G != 0.15 || p.Measured.B != 0.1 {
		t.Errorf("measured: got %+v", p.Measured)
	}

	// Reported by calibration_status too
	decodeContent(t, callTool(t, s, "calibration_status", map[string]interface{}{}), &status)
	if status.Ready || len(status.Points) != 1 {
		t.Errorf("status: got %+v", status)
	}
}

func TestHandleToolsCall_CalibrationAdd_Errors(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 20, 20, color.White)
	defer os.Remove(imgPath)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown kind", map[string]interface{}{"kind": "purple", "linear_rgb": []float64{1, 1, 1}}},
		{"missing kind", map[string]interface{}{"linear_rgb": []float64{1, 1, 1}}},
		{"short linear_rgb", map[string]interface{}{"kind": "white", "linear_rgb": []float64{1, 1}}},
		{"no source", map[string]interface{}{"kind": "white"}},
		{"path without location", map[string]interface{}{"kind": "white", "path": imgPath}},
		{"path with only x", map[string]interface{}{"kind": "white", "path": imgPath, "x": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "calibration_add", tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}

	if s.calibration.Snapshot().Len() != 0 {
		t.Error("failed calls should not store reference patches")
	}
}

func TestHandleToolsCall_CalibrationClear(t *testing.T) {
	s := New()
	if err := s.calibration.Add(calibration.White, colorspace.Linear{R: 0.9, G: 0.9, B: 0.9}); err != nil {
		t.Fatal(err)
	}
	if err := s.calibration.Add(calibration.Black, colorspace.Linear{R: 0.05, G: 0.05, B: 0.05}); err != nil {
		t.Fatal(err)
	}

	var status CalibrationStatus
	decodeContent(t, callTool(t, s, "calibration_status", nil), &status)
	if !status.Ready {
		t.Fatal("calibration should be ready before clearing")
	}

	decodeContent(t, callTool(t, s, "calibration_clear", map[string]interface{}{}), &status)
	if status.Ready {
		t.Error("calibration should not be ready after clearing")
	}
	if status.Points == nil || len(status.Points) != 0 {
		t.Errorf("points after clear: got %#v, want empty list", status.Points)
	}
}

func TestHandleToolsCall_ColorDifference(t *testing.T) {
	s := New()

	tests := []struct {
		name        string
		c1, c2      string
		wantMin     float64
		wantMax     float64
		wantVerdict string
	}{
		{"identical", "#336699", "#336699", 0, 0, "imperceptible"},
		{"lowercase", "#abcdef", "#ABCDEF", 0, 0, "imperceptible"},
		{"black white", "#000000", "#FFFFFF", 99, 101, "different colors"},
		{"near grays", "#808080", "#828282", 0.1, 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res ColorDifferenceResult
			decodeContent(t, callTool(t, s, "color_difference", map[string]interface{}{
				"color1": tt.c1, "color2": tt.c2,
			}), &res)
			if res.DeltaE < tt.wantMin-1e-9 || res.DeltaE > tt.wantMax+1e-9 {
				t.Errorf("delta_e: got %.4f, want in [%.1f, %.1f]", res.DeltaE, tt.wantMin, tt.wantMax)
			}
			if tt.wantVerdict != "" && res.Verdict != tt.wantVerdict {
				t.Errorf("verdict: got %q, want %q", res.Verdict, tt.wantVerdict)
			}
		})
	}
}

func TestHandleToolsCall_ColorDifference_Invalid(t *testing.T) {
	s := New()

	resp := callTool(t, s, "color_difference", map[string]interface{}{"color1": "#12345", "color2": "#000000"})
	if resp.Error == nil {
		t.Fatal("expected an error for a malformed color")
	}
	if data, _ := resp.Error.Data.(string); !strings.HasPrefix(data, "color1") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		de   float64
		want string
	}{
		{0, "imperceptible"},
		{0.99, "imperceptible"},
		{1, "barely noticeable"},
		{5, "noticeable"},
		{10, "different colors"},
	}
	for _, tt := range tests {
		if got := verdict(tt.de); got != tt.want {
			t.Errorf("verdict(%v): got %q, want %q", tt.de, got, tt.want)
		}
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 100, color.RGBA{128, 128, 128, 255})
	defer os.Remove(imgPath)

	square := []map[string]interface{}{{"x": 10, "y": 10}, {"x": 60, "y": 10}, {"x": 60, "y": 60}, {"x": 10, "y": 60}}

	// Test each tool to ensure executeTool correctly dispatches
	toolTests := []struct {
		name string
		args map[string]interface{}
	}{
		{"image_load", map[string]interface{}{"path": imgPath}},
		{"image_dimensions", map[string]interface{}{"path": imgPath}},
		{"color_measure_point", map[string]interface{}{"path": imgPath, "x": 50, "y": 50}},
		{"color_measure_points", map[string]interface{}{"path": imgPath, "points": []map[string]interface{}{{"x": 25, "y": 25}}}},
		{"color_measure_region", map[string]interface{}{"path": imgPath, "polygon": square}},
		{"calibration_add", map[string]interface{}{"kind": "gray", "path": imgPath, "x": 50, "y": 50}},
		{"calibration_status", map[string]interface{}{}},
		{"calibration_clear", map[string]interface{}{}},
		{"color_difference", map[string]interface{}{"color1": "#000000", "color2": "#FFFFFF"}},
	}

	if len(toolTests) != len(GetToolDefinitions()) {
		t.Fatalf("dispatch test covers %d tools, definitions list %d", len(toolTests), len(GetToolDefinitions()))
	}

	for _, tt := range toolTests {
		t.Run(tt.name, func(t *testing.T) {
			argsJSON, _ := json.Marshal(tt.args)
			result, err := s.executeTool(tt.name, argsJSON)
			if err != nil {
				t.Fatalf("executeTool(%s) failed: %v", tt.name, err)
			}
			if result == nil {
				t.Errorf("executeTool(%s) returned nil result", tt.name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()

	_, err := s.executeTool("image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestExecuteTool_RegionTooSmallIsSentinel(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 20, 20, color.White)
	defer os.Remove(imgPath)

	args, _ := json.Marshal(map[string]interface{}{
		"path":    imgPath,
		"polygon": []map[string]float64{{"x": 1, "y": 1}, {"x": 3, "y": 1}, {"x": 1, "y": 3}},
	})
	_, err := s.executeTool("color_measure_region", args)
	if !errors.Is(err, sampling.ErrRegionTooSmall) {
		t.Errorf("got %v, want ErrRegionTooSmall", err)
	}
}
