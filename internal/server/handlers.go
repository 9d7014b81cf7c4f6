package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/processor"
	"github.com/ironsheep/unimage/internal/transform"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "processor_load", "processor_clip").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// argError marks a malformed tool argument. It is reported as -32602.
type argError struct {
	err error
}

func (e *argError) Error() string { return e.err.Error() }

func invalidArgs(format string, args ...interface{}) error {
	return &argError{err: fmt.Errorf(format, args...)}
}

// opResult is the body of every processor tool. A processor failure is a
// successful tool call with Success false; only protocol, argument and
// handle problems become JSON-RPC errors.
type opResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return -32602; other tool errors return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("Tool %s failed: %v", params.Name, err)
		var ae *argError
		if errors.As(err, &ae) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Lifecycle
	case "processor_create":
		return s.handleCreate()
	case "processor_free":
		return s.handleFree(args)
	case "processor_clone":
		return s.handleClone(args)
	case "processor_copy_from":
		return s.handleCopyFrom(args)

	// Loading
	case "processor_load":
		return s.handleLoad(args)
	case "processor_load_raw":
		return s.handleLoadRaw(args)

	// Transforms
	case "processor_resize":
		return s.handleResize(args)
	case "processor_clip":
		return s.handleClip(args)

	// Inspection
	case "processor_info":
		return s.handleInfo(args)
	case "processor_error":
		return s.handleError(args)
	case "processor_buffer":
		return s.handleBuffer(args)

	// Color
	case "processor_sample_color":
		return s.handleSampleColor(args)
	case "processor_dominant_colors":
		return s.handleDominantColors(args)

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argError{err: err}
	}
	return nil
}

// outcome converts a processor error into the tool result.
func (s *Server) outcome(handle int64, op string, err error) opResult {
	if err != nil {
		kind := imgerr.KindOf(err).String()
		s.log.Info("Processor %d: %s failed (%s): %s", handle, op, kind, err.Error())
		return opResult{Success: false, Error: err.Error(), Kind: kind}
	}
	return opResult{Success: true}
}

// === Lifecycle Handlers ===

type handleArgs struct {
	Handle int64 `json:"handle"`
}

type createResult struct {
	Success bool  `json:"success"`
	Handle  int64 `json:"handle"`
}

func (s *Server) handleCreate() (interface{}, error) {
	handle, err := s.table.Add(s.newProcessor())
	if err != nil {
		return nil, err
	}
	s.log.Debug("Processor %d created (%d open)", handle, s.table.Len())
	return createResult{Success: true, Handle: handle}, nil
}

func (s *Server) handleFree(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.table.Remove(a.Handle); err != nil {
		return nil, err
	}
	s.log.Debug("Processor %d released (%d open)", a.Handle, s.table.Len())
	return opResult{Success: true}, nil
}

type cloneResult struct {
	opResult
	Handle int64 `json:"handle,omitempty"`
}

func (s *Server) handleClone(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var clone *processor.Processor
	var res cloneResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		var cerr error
		clone, cerr = p.TryClone()
		res.opResult = s.outcome(a.Handle, "clone", cerr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if clone == nil {
		return res, nil
	}

	handle, err := s.table.Add(clone)
	if err != nil {
		clone.Close()
		return nil, err
	}
	s.log.Debug("Processor %d created (%d open)", handle, s.table.Len())
	res.Handle = handle
	return res, nil
}

type copyFromArgs struct {
	Handle int64 `json:"handle"`
	Source int64 `json:"source"`
}

func (s *Server) handleCopyFrom(args json.RawMessage) (interface{}, error) {
	var a copyFromArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res opResult
	err := s.table.WithPair(a.Handle, a.Source, func(dst, src *processor.Processor) error {
		res = s.outcome(a.Handle, "copy_from", dst.CopyFrom(src))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Loading Handlers ===

type loadArgs struct {
	Handle     int64  `json:"handle"`
	Path       string `json:"path"`
	DataBase64 string `json:"data_base64"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var data []byte
	switch {
	case a.Path != "" && a.DataBase64 != "":
		return nil, invalidArgs("provide either path or data_base64, not both")
	case a.Path != "":
		if !s.cfg.AllowPaths {
			return nil, fmt.Errorf("loading from paths is disabled by configuration")
		}
		b, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read image")
		}
		data = b
	case a.DataBase64 != "":
		b, err := base64.StdEncoding.DecodeString(a.DataBase64)
		if err != nil {
			return nil, invalidArgs("data_base64: %v", err)
		}
		data = b
	default:
		return nil, invalidArgs("one of path or data_base64 is required")
	}

	return s.runOp(a.Handle, "load", func(p *processor.Processor) error {
		return p.Load(data)
	})
}

type loadRawArgs struct {
	Handle     int64  `json:"handle"`
	DataBase64 string `json:"data_base64"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     int    `json:"format"`
}

func (s *Server) handleLoadRaw(args json.RawMessage) (interface{}, error) {
	var a loadRawArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(a.DataBase64)
	if err != nil {
		return nil, invalidArgs("data_base64: %v", err)
	}

	return s.runOp(a.Handle, "load_raw", func(p *processor.Processor) error {
		return p.LoadRawCode(data, a.Width, a.Height, a.Format)
	})
}

// runOp runs a fallible processor operation and reports its outcome.
func (s *Server) runOp(handle int64, op string, fn func(*processor.Processor) error) (interface{}, error) {
	var res opResult
	err := s.table.With(handle, func(p *processor.Processor) error {
		res = s.outcome(handle, op, fn(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Transform Handlers ===

type resizeArgs struct {
	Handle int64  `json:"handle"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Filter string `json:"filter"`
}

func (s *Server) handleResize(args json.RawMessage) (interface{}, error) {
	var a resizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var filter transform.Filter
	if a.Filter != "" {
		f, err := transform.ParseFilter(a.Filter)
		if err != nil {
			return nil, &argError{err: err}
		}
		filter = f
	}

	return s.runOp(a.Handle, "resize", func(p *processor.Processor) error {
		if filter == "" {
			return p.Resize(a.Width, a.Height)
		}
		return p.ResizeWith(a.Width, a.Height, filter)
	})
}

type clipArgs struct {
	Handle int64 `json:"handle"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

func (s *Server) handleClip(args json.RawMessage) (interface{}, error) {
	var a clipArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.runOp(a.Handle, "clip", func(p *processor.Processor) error {
		return p.Clip(a.X, a.Y, a.Width, a.Height)
	})
}

// === Inspection Handlers ===

type infoResult struct {
	Handle     int64  `json:"handle"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     int    `json:"format"`
	FormatName string `json:"format_name"`
	ByteSize   int    `json:"byte_size"`
	Filter     string `json:"filter"`
	Released   bool   `json:"released,omitempty"`
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res infoResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		res = infoResult{
			Handle:     a.Handle,
			Width:      p.Width(),
			Height:     p.Height(),
			Format:     p.Format().Code(),
			FormatName: p.Format().String(),
			ByteSize:   p.ByteSize(),
			Filter:     string(p.Filter()),
			Released:   p.Released(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type errorResult struct {
	Message string `json:"message"`
}

func (s *Server) handleError(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res errorResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		res.Message = p.LastErrorMessage()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type bufferResult struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Format     int     `json:"format"`
	DataBase64 *string `json:"data_base64"`
}

func (s *Server) handleBuffer(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res bufferResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		res.Width = p.Width()
		res.Height = p.Height()
		res.Format = p.Format().Code()
		p.View(func(pix []byte) {
			enc := base64.StdEncoding.EncodeToString(pix)
			res.DataBase64 = &enc
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Color Handlers ===

type sampleColorArgs struct {
	Handle int64 `json:"handle"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
}

type sampleColorResult struct {
	opResult
	*processor.ColorResult
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res sampleColorResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		c, serr := p.SampleColor(a.X, a.Y)
		res.opResult = s.outcome(a.Handle, "sample_color", serr)
		res.ColorResult = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type dominantColorsArgs struct {
	Handle int64 `json:"handle"`
	Count  *int  `json:"count"`
}

type dominantColorsResult struct {
	opResult
	Colors []processor.ColorFrequency `json:"colors,omitempty"`
}

func (s *Server) handleDominantColors(args json.RawMessage) (interface{}, error) {
	var a dominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	count := 5
	if a.Count != nil {
		count = *a.Count
	}

	var res dominantColorsResult
	err := s.table.With(a.Handle, func(p *processor.Processor) error {
		colors, derr := p.DominantColors(count)
		res.opResult = s.outcome(a.Handle, "dominant_colors", derr)
		res.Colors = colors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
