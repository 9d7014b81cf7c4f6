package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/unimage/internal/config"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler-test.png")
	if err := os.WriteFile(path, encodeTestPNG(t, width, height, c), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func encodeTestPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// callTool runs tools/call and returns the decoded tool result, or the
// JSON-RPC error when the call failed at the protocol level.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: paramsJSON})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return out, nil
}

// mustCall is callTool for calls that must not produce a JSON-RPC error.
func mustCall(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	out, rpcErr := callTool(t, s, name, args)
	if rpcErr != nil {
		t.Fatalf("%s: unexpected JSON-RPC error %d: %v", name, rpcErr.Code, rpcErr.Data)
	}
	return out
}

func createProcessor(t *testing.T, s *Server) float64 {
	t.Helper()
	out := mustCall(t, s, "processor_create", nil)
	h, ok := out["handle"].(float64)
	if !ok || h < 1 {
		t.Fatalf("processor_create: bad handle %v", out["handle"])
	}
	return h
}

// loadWhite8x8 loads 64 white RGB pixels into handle.
func loadWhite8x8(t *testing.T, s *Server, h float64) {
	t.Helper()
	out := mustCall(t, s, "processor_load_raw", map[string]interface{}{
		"handle":      h,
		"data_base64": base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xff}, 8*8*3)),
		"width":       8,
		"height":      8,
		"format":      1,
	})
	if out["success"] != true {
		t.Fatalf("load_raw failed: %v", out["error"])
	}
}

func info(t *testing.T, s *Server, h float64) map[string]interface{} {
	t.Helper()
	return mustCall(t, s, "processor_info", map[string]interface{}{"handle": h})
}

func TestHandleToolsCall_CreateInfoFree(t *testing.T) {
	s := New()
	h := createProcessor(t, s)

	got := info(t, s, h)
	if got["width"] != float64(0) || got["height"] != float64(0) || got["format"] != float64(0) {
		t.Errorf("new processor info: got %v", got)
	}
	if got["format_name"] != "none" {
		t.Errorf("format_name: got %v, want none", got["format_name"])
	}

	buf := mustCall(t, s, "processor_buffer", map[string]interface{}{"handle": h})
	if buf["data_base64"] != nil {
		t.Errorf("empty processor buffer: got %v, want null", buf["data_base64"])
	}

	mustCall(t, s, "processor_free", map[string]interface{}{"handle": h})
	if _, rpcErr := callTool(t, s, "processor_info", map[string]interface{}{"handle": h}); rpcErr == nil || rpcErr.Code != -32000 {
		t.Errorf("info after free: got %+v, want -32000", rpcErr)
	}
	if _, rpcErr := callTool(t, s, "processor_free", map[string]interface{}{"handle": h}); rpcErr == nil {
		t.Error("double free should fail")
	}
}

func TestHandleToolsCall_LoadRawClipBuffer(t *testing.T) {
	s := New()
	h := createProcessor(t, s)
	loadWhite8x8(t, s, h)

	out := mustCall(t, s, "processor_clip", map[string]interface{}{
		"handle": h, "x": 2, "y": 2, "width": 4, "height": 4,
	})
	if out["success"] != true {
		t.Fatalf("clip failed: %v", out["error"])
	}

	got := info(t, s, h)
	if got["width"] != float64(4) || got["height"] != float64(4) || got["byte_size"] != float64(48) {
		t.Errorf("info after clip: got %v", got)
	}

	buf := mustCall(t, s, "processor_buffer", map[string]interface{}{"handle": h})
	data, err := base64.StdEncoding.DecodeString(buf["data_base64"].(string))
	if err != nil {
		t.Fatalf("decode buffer: %v", err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{0xff}, 48)) {
		t.Errorf("buffer after clip: got %v", data)
	}
}

func TestHandleToolsCall_FailureIsReportedInResult(t *testing.T) {
	s := New()
	h := createProcessor(t, s)
	loadWhite8x8(t, s, h)

	out := mustCall(t, s, "processor_clip", map[string]interface{}{
		"handle": h, "x": 6, "y": 6, "width": 4, "height": 4,
	})
	if out["success"] != false {
		t.Fatal("out-of-bounds clip should fail")
	}
	msg, _ := out["error"].(string)
	if !strings.Contains(msg, "exceeds image extent 8x8") {
		t.Errorf("error: got %q", msg)
	}
	if out["kind"] != "OutOfBounds" {
		t.Errorf("kind: got %v, want OutOfBounds", out["kind"])
	}

	// Failed operation leaves the image untouched.
	got := info(t, s, h)
	if got["width"] != float64(8) || got["height"] != float64(8) {
		t.Errorf("info after failed clip: got %v", got)
	}

	errOut := mustCall(t, s, "processor_error", map[string]interface{}{"handle": h})
	if errOut["message"] != msg {
		t.Errorf("processor_error: got %v, want %q", errOut["message"], msg)
	}

	// A later success does not clear the message.
	mustCall(t, s, "processor_resize", map[string]interface{}{"handle": h, "width": 4, "height": 4})
	errOut = mustCall(t, s, "processor_error", map[string]interface{}{"handle": h})
	if errOut["message"] != msg {
		t.Errorf("processor_error after success: got %v, want %q", errOut["message"], msg)
	}
}

func TestHandleToolsCall_LoadRawFormatCode(t *testing.T) {
	s := New()
	h := createProcessor(t, s)

	out := mustCall(t, s, "processor_load_raw", map[string]interface{}{
		"handle":      h,
		"data_base64": base64.StdEncoding.EncodeToString(make([]byte, 12)),
		"width":       2,
		"height":      2,
		"format":      9,
	})
	if out["success"] != false {
		t.Fatal("format code 9 should be rejected")
	}

	out = mustCall(t, s, "processor_load_raw", map[string]interface{}{
		"handle":      h,
		"data_base64": base64.StdEncoding.EncodeToString(make([]byte, 11)),
		"width":       2,
		"height":      2,
		"format":      1,
	})
	if out["success"] != false {
		t.Fatal("short raw data should be rejected")
	}
	if msg, _ := out["error"].(string); !strings.Contains(msg, "11 bytes") {
		t.Errorf("size mismatch error: got %q", msg)
	}
}

func TestHandleToolsCall_LoadEncoded(t *testing.T) {
	s := New()
	h := createProcessor(t, s)

	path := createTestImageFile(t, 10, 6, color.NRGBA{255, 0, 0, 255})
	out := mustCall(t, s, "processor_load", map[string]interface{}{"handle": h, "path": path})
	if out["success"] != true {
		t.Fatalf("load from path failed: %v", out["error"])
	}
	got := info(t, s, h)
	if got["width"] != float64(10) || got["height"] != float64(6) || got["format_name"] != "rgb" {
		t.Errorf("info after load: got %v", got)
	}

	data := encodeTestPNG(t, 3, 3, color.NRGBA{0, 0, 255, 128})
	out = mustCall(t, s, "processor_load", map[string]interface{}{
		"handle":      h,
		"data_base64": base64.StdEncoding.EncodeToString(data),
	})
	if out["success"] != true {
		t.Fatalf("load from data failed: %v", out["error"])
	}
	if got := info(t, s, h); got["format_name"] != "rgba" {
		t.Errorf("translucent PNG format: got %v, want rgba", got["format_name"])
	}

	out = mustCall(t, s, "processor_load", map[string]interface{}{
		"handle":      h,
		"data_base64": base64.StdEncoding.EncodeToString([]byte("definitely not an image")),
	})
	if out["success"] != false {
		t.Fatal("garbage should fail to decode")
	}
	if got := info(t, s, h); got["width"] != float64(3) {
		t.Errorf("failed load changed the image: %v", got)
	}
}

func TestHandleToolsCall_LoadArgumentErrors(t *testing.T) {
	s := New()
	h := createProcessor(t, s)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"neither", map[string]interface{}{"handle": h}},
		{"both", map[string]interface{}{"handle": h, "path": "/x.png", "data_base64": "AAAA"}},
		{"bad base64", map[string]interface{}{"handle": h, "data_base64": "!!!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := callTool(t, s, "processor_load", tt.args)
			if rpcErr == nil || rpcErr.Code != -32602 {
				t.Errorf("got %+v, want -32602", rpcErr)
			}
		})
	}
}

func TestHandleToolsCall_PathsDisabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.AllowPaths = false
	s := New(WithConfig(cfg))
	h := createProcessor(t, s)

	path := createTestImageFile(t, 2, 2, color.White)
	_, rpcErr := callTool(t, s, "processor_load", map[string]interface{}{"handle": h, "path": path})
	if rpcErr == nil || rpcErr.Code != -32000 {
		t.Errorf("got %+v, want -32000", rpcErr)
	}
}

func TestHandleToolsCall_Resize(t *testing.T) {
	s := New()
	h := createProcessor(t, s)
	loadWhite8x8(t, s, h)

	out := mustCall(t, s, "processor_resize", map[string]interface{}{
		"handle": h, "width": 3, "height": 5, "filter": "lanczos",
	})
	if out["success"] != true {
		t.Fatalf("resize failed: %v", out["error"])
	}
	got := info(t, s, h)
	if got["width"] != float64(3) || got["height"] != float64(5) {
		t.Errorf("info after resize: got %v", got)
	}

	out = mustCall(t, s, "processor_resize", map[string]interface{}{"handle": h, "width": 0, "height": 5})
	if out["success"] != false {
		t.Error("zero width should fail")
	}

	_, rpcErr := callTool(t, s, "processor_resize", map[string]interface{}{
		"handle": h, "width": 2, "height": 2, "filter": "sinc",
	})
	if rpcErr == nil || rpcErr.Code != -32602 {
		t.Errorf("unknown filter: got %+v, want -32602", rpcErr)
	}
}

func TestHandleToolsCall_ResizeHugeTarget(t *testing.T) {
	s := New()
	h := createProcessor(t, s)
	loadWhite8x8(t, s, h)

	out := mustCall(t, s, "processor_resize", map[string]interface{}{
		"handle": h, "width": 1 << 24, "height": 1 << 24,
	})
	if out["success"] != false || out["kind"] != "InvalidDimensions" {
		t.Fatalf("huge resize: got %v", out)
	}
	if got := info(t, s, h); got["width"] != float64(8) {
		t.Errorf("failed resize changed the image: %v", got)
	}
}

func TestHandleToolsCall_CloneAndCopyFrom(t *testing.T) {
	s := New()
	a := createProcessor(t, s)
	loadWhite8x8(t, s, a)

	out := mustCall(t, s, "processor_clone", map[string]interface{}{"handle": a})
	if out["success"] != true {
		t.Fatalf("clone failed: %v", out["error"])
	}
	c := out["handle"].(float64)
	if c == a {
		t.Fatal("clone reused the source handle")
	}

	mustCall(t, s, "processor_clip", map[string]interface{}{"handle": c, "x": 0, "y": 0, "width": 2, "height": 2})
	if got := info(t, s, a); got["width"] != float64(8) {
		t.Errorf("clip on clone changed source: %v", got)
	}

	b := createProcessor(t, s)
	out = mustCall(t, s, "processor_copy_from", map[string]interface{}{"handle": b, "source": c})
	if out["success"] != true {
		t.Fatalf("copy_from failed: %v", out["error"])
	}
	if got := info(t, s, b); got["width"] != float64(2) {
		t.Errorf("copy_from result: %v", got)
	}

	out = mustCall(t, s, "processor_copy_from", map[string]interface{}{"handle": b, "source": b})
	if out["success"] != true {
		t.Errorf("self copy_from failed: %v", out["error"])
	}

	_, rpcErr := callTool(t, s, "processor_copy_from", map[string]interface{}{"handle": b, "source": 999})
	if rpcErr == nil {
		t.Error("copy_from unknown source should fail")
	}
}

func TestHandleToolsCall_Colors(t *testing.T) {
	s := New()
	h := createProcessor(t, s)
	loadWhite8x8(t, s, h)

	out := mustCall(t, s, "processor_sample_color", map[string]interface{}{"handle": h, "x": 7, "y": 7})
	if out["success"] != true || out["hex"] != "#FFFFFF" {
		t.Errorf("sample_color: got %v", out)
	}

	out = mustCall(t, s, "processor_sample_color", map[string]interface{}{"handle": h, "x": 8, "y": 0})
	if out["success"] != false {
		t.Error("sample outside the image should fail")
	}

	out = mustCall(t, s, "processor_dominant_colors", map[string]interface{}{"handle": h})
	colors, ok := out["colors"].([]interface{})
	if !ok || len(colors) != 1 {
		t.Fatalf("dominant_colors: got %v", out)
	}
	first := colors[0].(map[string]interface{})
	if first["hex"] != "#F0F0F0" || first["percentage"] != float64(100) {
		t.Errorf("dominant color: got %v", first)
	}
}

func TestHandleToolsCall_ProcessorLimit(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxProcessors = 2
	s := New(WithConfig(cfg))

	createProcessor(t, s)
	h := createProcessor(t, s)
	if _, rpcErr := callTool(t, s, "processor_create", nil); rpcErr == nil {
		t.Fatal("third processor should exceed the limit")
	}

	mustCall(t, s, "processor_free", map[string]interface{}{"handle": h})
	createProcessor(t, s)
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New()
	_, rpcErr := callTool(t, s, "image_ocr_full", nil)
	if rpcErr == nil || rpcErr.Code != -32000 {
		t.Errorf("got %+v, want -32000", rpcErr)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}

	_, rpcErr := callTool(t, s, "processor_info", map[string]interface{}{"handle": "one"})
	if rpcErr == nil || rpcErr.Code != -32602 {
		t.Errorf("string handle: got %+v, want -32602", rpcErr)
	}
}
