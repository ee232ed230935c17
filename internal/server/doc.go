// Package server implements the MCP (Model Context Protocol) server for
// vineyard health analysis.
//
// This package provides a JSON-RPC 2.0 server that exposes the vegetation
// index, grid and health packages as MCP tools, so that an MCP client can run
// an analysis and inspect the grid without the command line.
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
// Notifications (requests without an id) never get a response.
//
// # Available Tools
//
//   - vineyard_health: Full analysis; writes the grid image and returns statistics
//   - vegetation_index: NDVI, GNDVI, NDRE or NDWI value distribution
//   - grid_preview: NDVI grid as base64 PNG, optionally colorized
//   - image_dimensions: Width and height of an image file
//
// # Image Caching
//
// The server keeps an in-memory cache of loaded images keyed by path, shared
// by every tool. The cache persists for the lifetime of the server process, so
// an image rewritten on disk is not reloaded.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, naming the offending values
//
// # Usage
//
//	srv := server.New(server.WithLogger(log), server.WithVersion(version))
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    return err
//	}
package server
