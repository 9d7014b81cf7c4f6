package server

import "github.com/ironsheep/unimage/internal/transform"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func handleProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Processor handle returned by processor_create",
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func filterNames() []string {
	filters := transform.Filters()
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = string(f)
	}
	return names
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Lifecycle
		{
			Name:        "processor_create",
			Description: "Create an empty image processor and return its handle. Every handle must eventually be released with processor_free.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "processor_free",
			Description: "Release a processor and its pixel buffer. The handle is invalid afterwards.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "processor_clone",
			Description: "Create a new processor holding an independent copy of another processor's image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "processor_copy_from",
			Description: "Replace the image in handle with a deep copy of the image in source.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"source": intProp("Handle of the processor to copy from"),
				},
				"required": []string{"handle", "source"},
			},
		},

		// Loading
		{
			Name:        "processor_load",
			Description: "Decode an encoded image (PNG, JPEG, GIF, BMP, TIFF, WebP or uraw) into the processor. Provide either a file path or base64 data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"data_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded image file contents",
					},
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "processor_load_raw",
			Description: "Load raw row-major pixels. data_base64 must decode to exactly width*height*bpp bytes (bpp 3 for RGB, 4 for RGBA).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"data_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded raw pixel bytes",
					},
					"width":  intProp("Width in pixels"),
					"height": intProp("Height in pixels"),
					"format": intProp("Pixel format code: 1 = RGB, 2 = RGBA"),
				},
				"required": []string{"handle", "data_base64", "width", "height", "format"},
			},
		},

		// Transforms
		{
			Name:        "processor_resize",
			Description: "Resample the image to the given dimensions. Resizing to the current size leaves the pixels unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"width":  intProp("Target width (at least 1)"),
					"height": intProp("Target height (at least 1)"),
					"filter": map[string]interface{}{
						"type":        "string",
						"enum":        filterNames(),
						"description": "Resampling filter (default: the server's configured filter)",
					},
				},
				"required": []string{"handle", "width", "height"},
			},
		},
		{
			Name:        "processor_clip",
			Description: "Replace the image with the rectangle at (x, y) of size width x height. The rectangle must lie inside the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"x":      intProp("Left edge X coordinate (0-based)"),
					"y":      intProp("Top edge Y coordinate (0-based)"),
					"width":  intProp("Rectangle width"),
					"height": intProp("Rectangle height"),
				},
				"required": []string{"handle", "x", "y", "width", "height"},
			},
		},

		// Inspection
		{
			Name:        "processor_info",
			Description: "Get width, height, pixel format and buffer size of the processor's image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "processor_error",
			Description: "Get the message of the most recent failed operation. The message is not cleared by later successes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
				},
				"required": []string{"handle"},
			},
		},
		{
			Name:        "processor_buffer",
			Description: "Get the raw pixel bytes as base64. Returns null when no image is loaded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
				},
				"required": []string{"handle"},
			},
		},

		// Color
		{
			Name:        "processor_sample_color",
			Description: "Get the color at a pixel in hex, RGBA and HSL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"x":      intProp("X coordinate (0-based)"),
					"y":      intProp("Y coordinate (0-based)"),
				},
				"required": []string{"handle", "x", "y"},
			},
		},
		{
			Name:        "processor_dominant_colors",
			Description: "Get the most frequent colors after quantizing each channel to 16 levels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": handleProp(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return (default: 5)",
						"default":     5,
					},
				},
				"required": []string{"handle"},
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
