// Package processor provides Processor, the single-image engine behind the
// unimage tool surface.
//
// A Processor owns exactly one pixel buffer and one error slot. Callers load
// an image (encoded or raw), apply zero or more transforms, and read the
// buffer back:
//
//	p := processor.New()
//	defer p.Close()
//	if err := p.Load(data); err != nil {
//	    return err
//	}
//	if err := p.Clip(0, 0, 64, 64); err != nil {
//	    return err
//	}
//	pix := p.Bytes()
//
// # Failure Semantics
//
// Every fallible operation returns an error classified by imgerr and records
// its message in the error slot. A failing operation never changes the
// buffer. The slot is not cleared by later successes, so LastErrorMessage
// may be stale; use the returned error to decide success.
//
// # Thread Safety
//
// A Processor has no internal locking. Calls on the same Processor must be
// serialized by the caller. Distinct Processors share no storage and may be
// used concurrently.
package processor

import (
	"github.com/ironsheep/unimage/internal/decode"
	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/pixel"
	"github.com/ironsheep/unimage/internal/transform"
)

// Processor is an exclusively owned image buffer plus its last error.
type Processor struct {
	buf      *pixel.Buffer
	slot     errorSlot
	decoder  *decode.Registry
	filter   transform.Filter
	released bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithDecoder sets the registry used by Load. Processors created without it
// use decode.Default().
func WithDecoder(r *decode.Registry) Option {
	return func(p *Processor) {
		if r != nil {
			p.decoder = r
		}
	}
}

// WithFilter sets the resampling filter used by Resize.
func WithFilter(f transform.Filter) Option {
	return func(p *Processor) {
		if f != "" {
			p.filter = f
		}
	}
}

// New creates an empty Processor. It never fails.
func New(opts ...Option) *Processor {
	p := &Processor{
		buf:    pixel.Empty(),
		filter: transform.DefaultFilter,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.decoder == nil {
		p.decoder = decode.Default()
	}
	return p
}

// fail records err in the error slot and returns it.
func (p *Processor) fail(err error) error {
	p.slot.set(err.Error())
	return err
}

func (p *Processor) checkLive() error {
	if p.released {
		return p.fail(imgerr.ErrReleased)
	}
	return nil
}

// install swaps in a new buffer; the previous storage becomes garbage.
func (p *Processor) install(buf *pixel.Buffer) {
	p.buf = buf
}

// LoadRaw adopts width*height pixels of the given format. data must be
// exactly width*height*bpp bytes; it is copied.
func (p *Processor) LoadRaw(data []byte, width, height int, format pixel.Format) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	buf, err := pixel.FromRaw(data, width, height, format)
	if err != nil {
		return p.fail(err)
	}
	p.install(buf)
	return nil
}

// LoadRawCode is LoadRaw with the format given as its integer code
// (1 RGB, 2 RGBA). Unknown codes fail with imgerr.KindInvalidFormat.
func (p *Processor) LoadRawCode(data []byte, width, height, code int) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	format, err := pixel.FormatFromCode(code)
	if err != nil {
		return p.fail(err)
	}
	return p.LoadRaw(data, width, height, format)
}

// Load decodes an encoded image and replaces the buffer with it.
func (p *Processor) Load(data []byte) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	buf, err := p.decoder.Decode(data)
	if err != nil {
		return p.fail(err)
	}
	p.install(buf)
	return nil
}

// Resize resamples the loaded image to width x height using the
// processor's filter.
func (p *Processor) Resize(width, height int) error {
	return p.ResizeWith(width, height, p.filter)
}

// ResizeWith is Resize with an explicit filter. Targets larger than the
// decoder's pixel limit fail with imgerr.KindInvalidDimensions.
func (p *Processor) ResizeWith(width, height int, filter transform.Filter) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	if limit := p.decoder.MaxPixels(); limit > 0 && width > 0 && height > 0 && width > limit/height {
		return p.fail(imgerr.New(imgerr.KindInvalidDimensions,
			"resize: target %dx%d exceeds pixel limit %d", width, height, limit))
	}
	buf, err := transform.Resize(p.buf, width, height, filter)
	if err != nil {
		return p.fail(err)
	}
	p.install(buf)
	return nil
}

// Clip keeps only the rectangle [x, x+width) x [y, y+height).
func (p *Processor) Clip(x, y, width, height int) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	buf, err := transform.Clip(p.buf, x, y, width, height)
	if err != nil {
		return p.fail(err)
	}
	p.install(buf)
	return nil
}

// Width returns the image width, 0 when nothing is loaded.
func (p *Processor) Width() int { return p.buf.Width() }

// Height returns the image height, 0 when nothing is loaded.
func (p *Processor) Height() int { return p.buf.Height() }

// Format returns the pixel format, FormatNone when nothing is loaded.
func (p *Processor) Format() pixel.Format { return p.buf.Format() }

// ByteSize returns the buffer length in bytes.
func (p *Processor) ByteSize() int { return p.buf.ByteSize() }

// Filter returns the default resize filter.
func (p *Processor) Filter() transform.Filter { return p.filter }

// LastErrorMessage returns the most recent failure message, or "" if no
// operation has failed yet.
func (p *Processor) LastErrorMessage() string {
	return p.slot.get()
}

// View calls fn with the current pixel bytes. fn must not modify or retain
// the slice. fn is not called when nothing is loaded.
func (p *Processor) View(fn func(pix []byte)) {
	if p.buf.IsEmpty() {
		return
	}
	fn(p.buf.Pix())
}

// ViewMut calls fn with writable access to the pixel bytes. The slice is
// only valid for the duration of the call.
func (p *Processor) ViewMut(fn func(pix []byte)) {
	if p.buf.IsEmpty() {
		return
	}
	fn(p.buf.Pix())
}

// Bytes returns a copy of the pixel bytes, or nil when nothing is loaded.
func (p *Processor) Bytes() []byte {
	if p.buf.IsEmpty() {
		return nil
	}
	out := make([]byte, len(p.buf.Pix()))
	copy(out, p.buf.Pix())
	return out
}

// TryClone returns an independent deep copy of the processor, including its
// error message and configuration.
func (p *Processor) TryClone() (*Processor, error) {
	if p.released {
		return nil, cloneFailed(p)
	}
	c := &Processor{
		buf:     p.buf.Clone(),
		decoder: p.decoder,
		filter:  p.filter,
	}
	c.slot.set(p.slot.get())
	return c, nil
}

// CopyFrom replaces p's buffer and error message with deep copies of src's.
// On failure p is unchanged apart from its error slot.
func (p *Processor) CopyFrom(src *Processor) error {
	if err := p.checkLive(); err != nil {
		return err
	}
	if src == nil {
		return p.fail(imgerr.New(imgerr.KindCloneFailed, "copy: source processor is nil"))
	}
	if src.released {
		return p.fail(cloneFailed(src))
	}
	if src == p {
		return nil
	}
	p.install(src.buf.Clone())
	p.slot.set(src.slot.get())
	return nil
}

func cloneFailed(src *Processor) error {
	msg := src.slot.get()
	if msg == "" {
		msg = imgerr.ErrReleased.Msg
	}
	return imgerr.New(imgerr.KindCloneFailed, "clone: source processor has been released (last error: %s)", msg)
}

// Close releases the buffer. Later fallible operations fail with
// imgerr.ErrReleased and accessors report an empty image. Close is
// idempotent.
//
// The last error message is kept: TryClone and CopyFrom on a released
// source report it inside their CloneFailed message.
func (p *Processor) Close() {
	p.buf = pixel.Empty()
	p.released = true
}

// Released reports whether Close has been called.
func (p *Processor) Released() bool {
	return p.released
}
