package pixel

import (
	"strings"

	"github.com/ironsheep/unimage/internal/imgerr"
)

// Format tags the layout of a pixel buffer. The numeric values are the
// stable codes used across the tool boundary.
type Format uint8

const (
	// FormatNone means no buffer is loaded.
	FormatNone Format = 0
	// FormatRGB stores 3 bytes per pixel: R, G, B.
	FormatRGB Format = 1
	// FormatRGBA stores 4 bytes per pixel: R, G, B, A (non-premultiplied).
	FormatRGBA Format = 2
)

// BytesPerPixel returns 3 for RGB, 4 for RGBA and 0 otherwise.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

// HasPixels reports whether f describes actual pixel storage.
func (f Format) HasPixels() bool {
	return f == FormatRGB || f == FormatRGBA
}

// Code returns the boundary integer code.
func (f Format) Code() int {
	return int(f)
}

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatRGB:
		return "rgb"
	case FormatRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// FormatFromCode converts a boundary code into a Format. Codes outside
// {0, 1, 2} are rejected instead of being reinterpreted.
func FormatFromCode(code int) (Format, error) {
	if code < int(FormatNone) || code > int(FormatRGBA) {
		return FormatNone, imgerr.New(imgerr.KindInvalidFormat,
			"pixel format code %d is not one of 0 (none), 1 (rgb), 2 (rgba)", code)
	}
	return Format(code), nil
}

// ParseFormat converts a case-insensitive name ("none", "rgb", "rgba").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return FormatNone, nil
	case "rgb":
		return FormatRGB, nil
	case "rgba":
		return FormatRGBA, nil
	default:
		return FormatNone, imgerr.New(imgerr.KindInvalidFormat, "unknown pixel format %q", name)
	}
}
