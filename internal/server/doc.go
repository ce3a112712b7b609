// Package server implements the MCP (Model Context Protocol) server for the
// mask editor.
//
// The server owns one mask editor sized from the configuration. Clients paint
// on it with brush clicks and strokes, flood it by luminance, load a source
// image into it, and inspect or composite it. Every change schedules a save;
// at most one save runs per save interval, and each one writes the mask as a
// PNG to the configured output path and announces it with a notification.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Notifications sent by the server:
//   - notifications/mask/saved: A save finished; carries the PNG as base64
//   - notifications/mask/source_loaded: An async or watched source was drawn
//
// # Available Tools
//
// Editor State:
//   - mask_status: State, size, brush and save progress
//   - mask_set_brush: Change brush color and radius
//
// Painting:
//   - mask_click: Paint one circle
//   - mask_stroke_begin, mask_stroke_extend, mask_stroke_end: Drag strokes
//   - mask_flood: Remap every pixel (below, above, gray)
//
// Source Image:
//   - mask_load_source: Draw an image file into the mask, optionally watched
//
// Inspection:
//   - mask_sample_color: Color and luminance at a pixel
//   - mask_coverage: Black, white and gray share
//   - mask_thumbnail: Shrunken PNG of the mask
//
// Compositing:
//   - mask_preview: Tint the source where the mask is painted
//   - mask_blend: Composite a generated image through the mask
//   - mask_expand: Grow source and mask for outpainting
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Failed saves are logged and never reach the client.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
