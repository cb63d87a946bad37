// Package server implements the MCP (Model Context Protocol) server for marker tracking.
//
// This package provides a JSON-RPC 2.0 server that exposes the measurement
// pipeline one stage at a time, so a client can inspect why a frame fell back
// to its original geometry or where the marker was found.
//
// # Protocol
//
// The server communicates over a line-delimited stream using JSON-RPC 2.0:
//   - Input: JSON-RPC requests (one per line)
//   - Output: JSON-RPC responses, one per request that carries an id
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame Information:
//   - frame_info: Load a frame and get its metadata
//
// Reference Surface:
//   - surface_detect: Find the four corners of the reference surface
//   - surface_rectify: Return the perspective-corrected frame
//   - surface_edges: Return the edge map used for detection
//
// Marker:
//   - marker_locate: Find the reddest point, with the rectification outcome
//   - marker_displacement: Distance between the markers of two frames
//
// Batch Measurement:
//   - trajectory_measure: Measure a directory of frames, optionally writing the report
//
// # Frame Caching
//
// Frames loaded by the single-frame tools are cached by path for the
// lifetime of the server. trajectory_measure evicts its frames when it
// returns.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A surface that cannot be found is not an error: the detect and rectify
// tools answer found=false with the reason.
//
// # Usage
//
//	srv := server.New(logger, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    logger.Error("server stopped", "error", err)
//	}
package server
