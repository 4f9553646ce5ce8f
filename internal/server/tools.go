package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var windowSizeProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Side of the square sampling window in pixels (default 9). Clamped to at least 1.",
	"default":     9,
}

var polygonProperty = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	},
	"minItems":    3,
	"description": "Polygon vertices in image pixel coordinates; the last vertex connects back to the first",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load a photo and return its dimensions and format. EXIF orientation is applied, so coordinates refer to the upright image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Measurement
		{
			Name:        "color_measure_point",
			Description: "Measure the surface color around a pixel. Averages a square window while discounting highlights, shadows and outliers. Returns hex, 8-bit RGB, linear RGB, CIE Lab (D50), a quality score (0-1) and a note (ok, highlights, mixed area, fallback). Uses the session calibration when it is ready.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"x":           map[string]interface{}{"type": "integer", "description": "X coordinate (0-based, from left). Clamped into the image."},
					"y":           map[string]interface{}{"type": "integer", "description": "Y coordinate (0-based, from top). Clamped into the image."},
					"window_size": windowSizeProperty,
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "color_measure_points",
			Description: "Measure the surface color around several pixels in one call. Results are returned in input order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string", "description": "Optional label for this point"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Array of points to measure",
					},
					"window_size": windowSizeProperty,
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "color_measure_region",
			Description: "Measure the surface color inside a freehand polygon selection. Edge pixels are weighted by coverage and pixels bleeding in from neighbouring areas are rejected. Fails with 'selection too small' when fewer than 32 pixels are covered. Note is ok or textured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"polygon": polygonProperty,
				},
				"required": []string{"path", "polygon"},
			},
		},

		// Calibration
		{
			Name:        "calibration_add",
			Description: "Record a white, gray or black reference patch for this session, replacing any earlier patch of the same kind. Give either linear_rgb directly, or a path with x/y (window) or polygon (region) to measure the patch uncalibrated. Calibration applies once two different kinds are recorded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"white", "gray", "black"},
						"description": "Reference kind: white (target 1.0), gray (18%), black (0.0)",
					},
					"linear_rgb": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"minItems":    3,
						"maxItems":    3,
						"description": "Measured linear RGB of the patch, each 0-1",
					},
					"path":        pathProperty,
					"x":           map[string]interface{}{"type": "integer"},
					"y":           map[string]interface{}{"type": "integer"},
					"window_size": windowSizeProperty,
					"polygon":     polygonProperty,
				},
				"required": []string{"kind"},
			},
		},
		{
			Name:        "calibration_clear",
			Description: "Remove every reference patch from the session calibration.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "calibration_status",
			Description: "Report whether the session calibration is active and list its reference patches.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Analysis Helpers
		{
			Name:        "color_difference",
			Description: "Compute the CIEDE2000 color difference between two hex colors. Below 1 is imperceptible, around 2 is just noticeable.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"color1": map[string]interface{}{"type": "string", "description": "First color as #RRGGBB"},
					"color2": map[string]interface{}{"type": "string", "description": "Second color as #RRGGBB"},
				},
				"required": []string{"color1", "color2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
