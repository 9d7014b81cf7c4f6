// Package transform implements the geometric operations applied to a loaded
// pixel buffer.
//
// Both operations are whole-replace: they read the source buffer, compute
// the result into freshly allocated storage and return it. The source is
// never modified, so a failure leaves the caller's buffer exactly as it was.
package transform

import (
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/pixel"
)

// Filter names a resampling kernel.
type Filter string

const (
	FilterNearest    Filter = "nearest"
	FilterBilinear   Filter = "bilinear"
	FilterBox        Filter = "box"
	FilterCatmullRom Filter = "catmullrom"
	FilterLanczos    Filter = "lanczos"
)

// DefaultFilter is used when no filter is configured.
const DefaultFilter = FilterBilinear

var resampleFilters = map[Filter]imaging.ResampleFilter{
	FilterNearest:    imaging.NearestNeighbor,
	FilterBilinear:   imaging.Linear,
	FilterBox:        imaging.Box,
	FilterCatmullRom: imaging.CatmullRom,
	FilterLanczos:    imaging.Lanczos,
}

// Filters lists the supported filter names.
func Filters() []Filter {
	return []Filter{FilterNearest, FilterBilinear, FilterBox, FilterCatmullRom, FilterLanczos}
}

// ParseFilter resolves a case-insensitive filter name. "linear" is accepted
// as an alias for bilinear, and the empty string selects DefaultFilter.
func ParseFilter(name string) (Filter, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		return DefaultFilter, nil
	case "linear":
		return FilterBilinear, nil
	}
	if _, ok := resampleFilters[Filter(n)]; !ok {
		return "", imgerr.New(imgerr.KindInvalidFormat, "unknown resize filter %q", name)
	}
	return Filter(n), nil
}

// Resize resamples src to width x height with the given filter. The result
// keeps src's pixel format. Resizing to the current size returns an exact
// copy.
func Resize(src *pixel.Buffer, width, height int, filter Filter) (*pixel.Buffer, error) {
	if src.IsEmpty() {
		return nil, imgerr.New(imgerr.KindNoImageLoaded, "resize: no image loaded")
	}
	if width < 1 || height < 1 {
		return nil, imgerr.New(imgerr.KindInvalidDimensions,
			"resize: target %dx%d must be at least 1x1", width, height)
	}
	if src.Width() == 0 || src.Height() == 0 {
		return nil, imgerr.New(imgerr.KindInvalidDimensions,
			"resize: source image %dx%d has no pixels to sample", src.Width(), src.Height())
	}
	// Resampling goes through an NRGBA image, so size the 4-byte form too.
	if _, err := pixel.ByteSize(width, height, pixel.FormatRGBA); err != nil {
		return nil, err
	}
	rf, ok := resampleFilters[filter]
	if !ok {
		return nil, imgerr.New(imgerr.KindInvalidFormat, "resize: unknown filter %q", filter)
	}

	if width == src.Width() && height == src.Height() {
		return src.Clone(), nil
	}

	resized := imaging.Resize(src.NRGBA(), width, height, rf)
	return pixel.FromNRGBA(resized, src.Format())
}
