// Package server implements the MCP (Model Context Protocol) server that
// exposes image processors as tools.
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
// # Handles
//
// Processors live in a ProcessorTable and are addressed by integer handles
// returned from processor_create or processor_clone. A handle stays valid
// until processor_free. The table lock is held for the whole of each tool
// call, so one processor is never touched by two calls at once. The number
// of live processors is capped by the max_processors setting.
//
// # Available Tools
//
// Lifecycle:
//   - processor_create, processor_free
//   - processor_clone: New handle with a deep copy
//   - processor_copy_from: Overwrite one processor with another's image
//
// Loading:
//   - processor_load: Decode PNG, JPEG, GIF, BMP, TIFF, WebP or uraw
//   - processor_load_raw: Adopt raw RGB/RGBA bytes
//
// Transforms:
//   - processor_resize, processor_clip
//
// Inspection:
//   - processor_info, processor_error, processor_buffer
//
// Color:
//   - processor_sample_color, processor_dominant_colors
//
// # Error Handling
//
// A failing processor operation is still a successful tool call. Its result
// is {"success": false, "error": "..."} and the message is also kept in the
// processor's error slot. JSON-RPC errors are reserved for:
//   - -32602: malformed params or tool arguments
//   - -32000: unknown tool or handle, handle limit, unreadable or disallowed path
//
// # Usage
//
//	srv := server.New(server.WithConfig(cfg), server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Error("%v", err)
//	}
package server
