package decode

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/ironsheep/unimage/internal/pixel"
)

// URaw layout:
//
//	offset size
//	0      4    magic "URAW"
//	4      1    version (1)
//	5      1    pixel format code (1 = rgb, 2 = rgba)
//	6      4    width, big endian
//	10     4    height, big endian
//	14     -    zstd frame holding width*height*bpp bytes
const (
	urawMagic      = "URAW"
	urawVersion    = 1
	urawHeaderSize = 14
)

// BufferDecoder is implemented by backends that produce pixel buffers
// directly, keeping their exact pixel format instead of going through
// image.Image.
type BufferDecoder interface {
	DecodeBuffer(data []byte) (*pixel.Buffer, error)
}

type urawHeader struct {
	format pixel.Format
	width  int
	height int
}

type urawBackend struct{}

// URaw decodes zstd-compressed raw pixel dumps.
func URaw() Backend {
	return urawBackend{}
}

func (urawBackend) Name() string { return "uraw" }

func (urawBackend) Match(header []byte) bool {
	return hasPrefix(header, urawMagic)
}

func (urawBackend) DecodeConfig(data []byte) (image.Config, error) {
	h, err := parseURawHeader(data)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{Width: h.width, Height: h.height}, nil
}

func (b urawBackend) Decode(data []byte) (image.Image, error) {
	buf, err := b.DecodeBuffer(data)
	if err != nil {
		return nil, err
	}
	return buf.NRGBA(), nil
}

func (urawBackend) DecodeBuffer(data []byte) (*pixel.Buffer, error) {
	h, err := parseURawHeader(data)
	if err != nil {
		return nil, err
	}
	size, err := pixel.ByteSize(h.width, h.height, h.format)
	if err != nil {
		return nil, err
	}

	zr, err := zstd.NewReader(bytes.NewReader(data[urawHeaderSize:]), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.Wrap(err, "open zstd payload")
	}
	defer zr.Close()

	// Grow with the decompressed data rather than trusting the header size.
	pix, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, errors.Wrap(err, "read zstd payload")
	}
	switch {
	case len(pix) < size:
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "payload shorter than %d bytes", size)
	case len(pix) > size:
		return nil, errors.Errorf("payload longer than %d bytes", size)
	}
	return pixel.FromRaw(pix, h.width, h.height, h.format)
}

func parseURawHeader(data []byte) (urawHeader, error) {
	if len(data) < urawHeaderSize {
		return urawHeader{}, errors.Wrapf(io.ErrUnexpectedEOF, "header needs %d bytes, got %d", urawHeaderSize, len(data))
	}
	if !hasPrefix(data, urawMagic) {
		return urawHeader{}, errors.New("missing URAW magic")
	}
	if v := data[4]; v != urawVersion {
		return urawHeader{}, errors.Errorf("unsupported version %d", v)
	}
	format, err := pixel.FormatFromCode(int(data[5]))
	if err != nil || !format.HasPixels() {
		return urawHeader{}, errors.Errorf("unsupported pixel format code %d", data[5])
	}
	w := binary.BigEndian.Uint32(data[6:10])
	h := binary.BigEndian.Uint32(data[10:14])
	if w == 0 || h == 0 || w > 1<<30 || h > 1<<30 {
		return urawHeader{}, errors.Errorf("invalid dimensions %dx%d", w, h)
	}
	return urawHeader{format: format, width: int(w), height: int(h)}, nil
}
