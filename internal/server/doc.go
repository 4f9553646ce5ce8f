// Package server implements the MCP (Model Context Protocol) server for color
// measurement tools.
//
// This package provides a JSON-RPC 2.0 server that lets an MCP client measure
// the true surface color of objects in photos: the client points at a pixel
// or draws a freehand selection, and the server returns a robust color
// estimate with a quality score.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Measurement:
//   - color_measure_point: Robust color of the window around a pixel
//   - color_measure_points: Same, for many pixels at once
//   - color_measure_region: Robust color inside a polygon
//
// Calibration:
//   - calibration_add: Record a white, gray or black reference patch
//   - calibration_clear: Forget all reference patches
//   - calibration_status: Report the active reference patches
//
// Analysis Helpers:
//   - color_difference: CIEDE2000 distance between two hex colors
//
// # Session Calibration
//
// Each Server owns one calibration. Every measuring tool call takes a single
// snapshot of it when the call starts, so a concurrent calibration_add never
// affects a measurement half way through. Reference patches measured from an
// image are always measured without calibration.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A polygon covering fewer than 32 pixels fails with "selection too small".
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.NewWithConfig(server.ConfigFromEnv(os.Getenv))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
