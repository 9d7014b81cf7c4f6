// Package imgerr defines the error kinds reported by the unimage engine.
//
// Every failure raised by the pixel, decode, transform and processor packages
// is an *Error carrying one Kind. Callers classify failures with errors.Is
// against the exported sentinels:
//
//	if errors.Is(err, imgerr.ErrOutOfBounds) {
//	    // rectangle did not fit
//	}
//
// Messages are meant for direct display. They name the violated constraint
// and the offending values, never memory addresses.
package imgerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an engine failure.
type Kind int

const (
	// KindInvalidDimensions: negative, zero (where forbidden) or overflowing sizes.
	KindInvalidDimensions Kind = iota + 1
	// KindSizeMismatch: raw pixel data length differs from width*height*bpp.
	KindSizeMismatch
	// KindDecodeFailed: the encoded stream could not be decoded.
	KindDecodeFailed
	// KindNoImageLoaded: the operation needs a loaded image.
	KindNoImageLoaded
	// KindOutOfBounds: a coordinate or rectangle lies outside the image.
	KindOutOfBounds
	// KindCloneFailed: the processor could not be duplicated.
	KindCloneFailed
	// KindInvalidFormat: a pixel format code or name is not recognized.
	KindInvalidFormat
	// KindReleased: the processor has been closed.
	KindReleased
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidDimensions:
		return "InvalidDimensions"
	case KindSizeMismatch:
		return "SizeMismatch"
	case KindDecodeFailed:
		return "DecodeFailed"
	case KindNoImageLoaded:
		return "NoImageLoaded"
	case KindOutOfBounds:
		return "OutOfBounds"
	case KindCloneFailed:
		return "CloneFailed"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindReleased:
		return "Released"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidDimensions = &Error{Kind: KindInvalidDimensions, Msg: "invalid dimensions"}
	ErrSizeMismatch      = &Error{Kind: KindSizeMismatch, Msg: "size mismatch"}
	ErrDecodeFailed      = &Error{Kind: KindDecodeFailed, Msg: "decode failed"}
	ErrNoImageLoaded     = &Error{Kind: KindNoImageLoaded, Msg: "no image loaded"}
	ErrOutOfBounds       = &Error{Kind: KindOutOfBounds, Msg: "out of bounds"}
	ErrCloneFailed       = &Error{Kind: KindCloneFailed, Msg: "clone failed"}
	ErrInvalidFormat     = &Error{Kind: KindInvalidFormat, Msg: "invalid pixel format"}
	ErrReleased          = &Error{Kind: KindReleased, Msg: "processor has been released"}
)

// Error is a classified engine failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error returns the display message, followed by the cause when one is set.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind, prefixing it with a formatted message.
// The cause keeps its pkg/errors stack for %+v formatting.
func Wrap(kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: errors.WithStack(cause)}
}

// KindOf returns the Kind of err, or 0 when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
