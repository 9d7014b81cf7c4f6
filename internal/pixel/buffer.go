package pixel

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/unimage/internal/imgerr"
)

// Buffer is a contiguous, row-major pixel buffer without padding.
//
// Invariant: len(pix) == width * height * format.BytesPerPixel(). An empty
// buffer has FormatNone, zero dimensions and no storage.
type Buffer struct {
	pix    []byte
	width  int
	height int
	format Format
}

// Empty returns a buffer in the "nothing loaded" state.
func Empty() *Buffer {
	return &Buffer{}
}

// MaxBytes is the largest pixel buffer the engine will allocate (16 GiB).
const MaxBytes = 1 << 34

// ByteSize returns width*height*bpp(format), failing with InvalidDimensions
// when a dimension is negative or the product exceeds MaxBytes.
func ByteSize(width, height int, format Format) (int, error) {
	if width < 0 || height < 0 {
		return 0, imgerr.New(imgerr.KindInvalidDimensions,
			"dimensions %dx%d must not be negative", width, height)
	}
	bpp := format.BytesPerPixel()
	if width == 0 || height == 0 || bpp == 0 {
		return 0, nil
	}
	if width > math.MaxInt/height || width*height > math.MaxInt/bpp {
		return 0, imgerr.New(imgerr.KindInvalidDimensions,
			"dimensions %dx%d overflow addressable size for %s", width, height, format)
	}
	size := width * height * bpp
	if size > MaxBytes {
		return 0, imgerr.New(imgerr.KindInvalidDimensions,
			"dimensions %dx%d %s need %d bytes, above the %d byte limit", width, height, format, size, MaxBytes)
	}
	return size, nil
}

func checkPixelFormat(format Format) error {
	if !format.HasPixels() {
		return imgerr.New(imgerr.KindInvalidFormat,
			"pixel format must be rgb or rgba, got %s", format)
	}
	return nil
}

// Allocate returns a zero-filled buffer of the given size and format.
func Allocate(width, height int, format Format) (*Buffer, error) {
	if err := checkPixelFormat(format); err != nil {
		return nil, err
	}
	size, err := ByteSize(width, height, format)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		pix:    make([]byte, size),
		width:  width,
		height: height,
		format: format,
	}, nil
}

// FromRaw adopts already-formatted pixel bytes. The data is copied, so the
// returned buffer never aliases the caller's slice.
func FromRaw(data []byte, width, height int, format Format) (*Buffer, error) {
	if err := checkPixelFormat(format); err != nil {
		return nil, err
	}
	size, err := ByteSize(width, height, format)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, imgerr.New(imgerr.KindSizeMismatch,
			"raw data is %d bytes, %dx%d %s needs %d", len(data), width, height, format, size)
	}
	pix := make([]byte, size)
	copy(pix, data)
	return &Buffer{pix: pix, width: width, height: height, format: format}, nil
}

// Width returns the width in pixels, 0 when empty.
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels, 0 when empty.
func (b *Buffer) Height() int { return b.height }

// Format returns the pixel format tag.
func (b *Buffer) Format() Format { return b.format }

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int { return b.width * b.format.BytesPerPixel() }

// ByteSize returns the size of the pixel storage; 0 when the format is None.
func (b *Buffer) ByteSize() int {
	if !b.format.HasPixels() {
		return 0
	}
	return b.width * b.height * b.format.BytesPerPixel()
}

// IsEmpty reports whether no image is held.
func (b *Buffer) IsEmpty() bool {
	return b == nil || !b.format.HasPixels()
}

// Pix returns the backing storage. The slice is owned by the buffer.
func (b *Buffer) Pix() []byte { return b.pix }

// Clone returns a deep copy sharing no storage with b.
func (b *Buffer) Clone() *Buffer {
	if b.IsEmpty() {
		return Empty()
	}
	pix := make([]byte, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{pix: pix, width: b.width, height: b.height, format: b.format}
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return y*b.Stride() + x*b.format.BytesPerPixel()
}

// NRGBA exposes the buffer as a non-premultiplied image. RGBA buffers share
// their storage with the result, which must therefore be treated as
// read-only; RGB buffers are expanded into fresh storage with opaque alpha.
func (b *Buffer) NRGBA() *image.NRGBA {
	rect := image.Rect(0, 0, b.width, b.height)
	if b.format == FormatRGBA {
		return &image.NRGBA{Pix: b.pix, Stride: b.Stride(), Rect: rect}
	}
	dst := image.NewNRGBA(rect)
	n := b.width * b.height
	for i := 0; i < n; i++ {
		s := b.pix[i*3 : i*3+3 : i*3+3]
		d := dst.Pix[i*4 : i*4+4 : i*4+4]
		d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
	}
	return dst
}

// FromNRGBA packs img into a buffer of the requested format. Alpha is
// dropped for RGB.
func FromNRGBA(img *image.NRGBA, format Format) (*Buffer, error) {
	if err := checkPixelFormat(format); err != nil {
		return nil, err
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out, err := Allocate(w, h, format)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		dst := out.pix[y*out.Stride() : (y+1)*out.Stride()]
		if format == FormatRGBA {
			copy(dst, src[:w*4])
			continue
		}
		for x := 0; x < w; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out, nil
}

// FromImage converts any decoded image into a buffer. Images with at least
// one non-opaque pixel become RGBA, everything else RGB.
func FromImage(img image.Image) (*Buffer, error) {
	format := FormatRGB
	if !isOpaque(img) {
		format = FormatRGBA
	}
	return FromNRGBA(imaging.Clone(img), format)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
