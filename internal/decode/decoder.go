// Package decode turns encoded image bytes into pixel buffers.
//
// Concrete codecs are pluggable Backends. A Registry holds them in order and
// picks one by sniffing the stream signature, never by a caller-supplied
// type. Every failure, whether an unknown signature, a truncated stream or a
// corrupt payload, is reported as an imgerr.KindDecodeFailed error whose
// message is suitable for direct display.
package decode

import (
	"bytes"
	"image"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/pixel"
)

// DefaultMaxPixels bounds width*height of decoded images (64 megapixels).
const DefaultMaxPixels = 64 * 1024 * 1024

// Backend decodes one container format.
type Backend interface {
	// Name is the short format name, e.g. "png".
	Name() string
	// Match reports whether header starts with this format's signature.
	Match(header []byte) bool
	// Decode decodes the complete stream.
	Decode(data []byte) (image.Image, error)
}

// ConfigDecoder is implemented by backends that can read dimensions without
// decoding pixels. The registry uses it to enforce the pixel limit up front.
type ConfigDecoder interface {
	DecodeConfig(data []byte) (image.Config, error)
}

// Registry dispatches encoded streams to the first matching backend.
type Registry struct {
	backends  []Backend
	maxPixels int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxPixels sets the largest accepted width*height. Zero or negative
// disables the check; pixel.MaxBytes still bounds every decode.
func WithMaxPixels(n int) Option {
	return func(r *Registry) {
		r.maxPixels = n
	}
}

// WithBackends appends backends after the built-in ones.
func WithBackends(backends ...Backend) Option {
	return func(r *Registry) {
		r.backends = append(r.backends, backends...)
	}
}

// NewRegistry creates an empty registry. Use Register or WithBackends to
// populate it.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns a registry with every built-in backend: png, jpeg, gif,
// bmp, tiff, webp and uraw.
func Default(opts ...Option) *Registry {
	r := &Registry{
		backends:  builtinBackends(),
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a backend. Earlier backends win when signatures overlap.
func (r *Registry) Register(b Backend) {
	r.backends = append(r.backends, b)
}

// Formats lists the registered backend names in dispatch order.
func (r *Registry) Formats() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// MaxPixels returns the configured pixel limit.
func (r *Registry) MaxPixels() int {
	return r.maxPixels
}

// Detect returns the backend whose signature matches data.
func (r *Registry) Detect(data []byte) (Backend, error) {
	if len(data) == 0 {
		return nil, imgerr.New(imgerr.KindDecodeFailed, "empty input")
	}
	for _, b := range r.backends {
		if b.Match(data) {
			return b, nil
		}
	}
	return nil, imgerr.New(imgerr.KindDecodeFailed,
		"unrecognized image signature (supported: %s)", strings.Join(r.Formats(), ", "))
}

// Decode sniffs data, decodes it with the matching backend and converts the
// result into a freshly allocated RGB or RGBA buffer.
func (r *Registry) Decode(data []byte) (*pixel.Buffer, error) {
	b, err := r.Detect(data)
	if err != nil {
		return nil, err
	}

	if cd, ok := b.(ConfigDecoder); ok {
		cfg, err := cd.DecodeConfig(data)
		if err != nil {
			return nil, decodeError(b, err)
		}
		if err := r.checkSize(cfg.Width, cfg.Height); err != nil {
			return nil, err
		}
	}

	if bd, ok := b.(BufferDecoder); ok {
		buf, err := bd.DecodeBuffer(data)
		if err != nil {
			return nil, decodeError(b, err)
		}
		return buf, nil
	}

	img, err := b.Decode(data)
	if err != nil {
		return nil, decodeError(b, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, imgerr.New(imgerr.KindDecodeFailed, "%s: decoded image is empty", b.Name())
	}
	if err := r.checkSize(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	buf, err := pixel.FromImage(img)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.KindDecodeFailed, err, "%s: convert pixels", b.Name())
	}
	return buf, nil
}

func (r *Registry) checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return imgerr.New(imgerr.KindDecodeFailed, "image dimensions %dx%d are not positive", w, h)
	}
	if r.maxPixels > 0 && (w > r.maxPixels/h) {
		return imgerr.New(imgerr.KindDecodeFailed,
			"image %dx%d exceeds pixel limit %d", w, h, r.maxPixels)
	}
	// Applies even when the pixel limit is disabled.
	if _, err := pixel.ByteSize(w, h, pixel.FormatRGBA); err != nil {
		return imgerr.New(imgerr.KindDecodeFailed, "%v", err)
	}
	return nil
}

// decodeError turns a backend failure into a display message. Truncation is
// named explicitly because the standard codecs report it as a bare EOF.
func decodeError(b Backend, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return imgerr.New(imgerr.KindDecodeFailed, "%s: truncated stream: %v", b.Name(), err)
	}
	return imgerr.New(imgerr.KindDecodeFailed, "%s: %v", b.Name(), err)
}

// hasPrefix is bytes.HasPrefix with a clearer call site for signatures.
func hasPrefix(data []byte, sig string) bool {
	return bytes.HasPrefix(data, []byte(sig))
}
