package decode

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// codec adapts a reader-based image package to the Backend interface.
type codec struct {
	name       string
	signatures []string
	match      func([]byte) bool
	decode     func(io.Reader) (image.Image, error)
	config     func(io.Reader) (image.Config, error)
}

func (c *codec) Name() string { return c.name }

func (c *codec) Match(header []byte) bool {
	if c.match != nil {
		return c.match(header)
	}
	for _, sig := range c.signatures {
		if hasPrefix(header, sig) {
			return true
		}
	}
	return false
}

func (c *codec) Decode(data []byte) (image.Image, error) {
	return c.decode(bytes.NewReader(data))
}

func (c *codec) DecodeConfig(data []byte) (image.Config, error) {
	return c.config(bytes.NewReader(data))
}

// PNG decodes PNG streams with the standard library.
func PNG() Backend {
	return &codec{
		name:       "png",
		signatures: []string{"\x89PNG\r\n\x1a\n"},
		decode:     png.Decode,
		config:     png.DecodeConfig,
	}
}

// JPEG decodes baseline and progressive JPEG streams.
func JPEG() Backend {
	return &codec{
		name:       "jpeg",
		signatures: []string{"\xff\xd8\xff"},
		decode: func(r io.Reader) (image.Image, error) {
			return jpeg.Decode(r)
		},
		config: jpeg.DecodeConfig,
	}
}

// GIF decodes the first frame of a GIF stream.
func GIF() Backend {
	return &codec{
		name:       "gif",
		signatures: []string{"GIF87a", "GIF89a"},
		decode:     gif.Decode,
		config:     gif.DecodeConfig,
	}
}

// BMP decodes Windows bitmaps via golang.org/x/image/bmp.
func BMP() Backend {
	return &codec{
		name:       "bmp",
		signatures: []string{"BM"},
		decode:     bmp.Decode,
		config:     bmp.DecodeConfig,
	}
}

// TIFF decodes little- and big-endian TIFF via golang.org/x/image/tiff.
func TIFF() Backend {
	return &codec{
		name:       "tiff",
		signatures: []string{"II*\x00", "MM\x00*"},
		decode:     tiff.Decode,
		config:     tiff.DecodeConfig,
	}
}

// WebP decodes lossy and lossless WebP via golang.org/x/image/webp.
func WebP() Backend {
	return &codec{
		name:   "webp",
		match:  isWebP,
		decode: webp.Decode,
		config: webp.DecodeConfig,
	}
}

// isWebP matches the RIFF container with a WEBP form type.
func isWebP(header []byte) bool {
	return len(header) >= 12 && hasPrefix(header, "RIFF") && string(header[8:12]) == "WEBP"
}

func builtinBackends() []Backend {
	return []Backend{PNG(), JPEG(), GIF(), BMP(), TIFF(), WebP(), URaw()}
}
