package transform

import (
	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/pixel"
)

// Rect is a clip rectangle: origin (X, Y) and size Width x Height.
type Rect struct {
	X, Y, Width, Height int
}

// Clip copies the rectangle [x, x+width) x [y, y+height) of src, row by
// row, into a new buffer of the same format.
func Clip(src *pixel.Buffer, x, y, width, height int) (*pixel.Buffer, error) {
	if src.IsEmpty() {
		return nil, imgerr.New(imgerr.KindNoImageLoaded, "clip: no image loaded")
	}
	if width < 1 || height < 1 {
		return nil, imgerr.New(imgerr.KindInvalidDimensions,
			"clip: size %dx%d must be at least 1x1", width, height)
	}
	if err := checkBounds(src, Rect{X: x, Y: y, Width: width, Height: height}); err != nil {
		return nil, err
	}

	dst, err := pixel.Allocate(width, height, src.Format())
	if err != nil {
		return nil, err
	}
	rowBytes := dst.Stride()
	for row := 0; row < height; row++ {
		from := src.PixOffset(x, y+row)
		copy(dst.Pix()[row*rowBytes:(row+1)*rowBytes], src.Pix()[from:from+rowBytes])
	}
	return dst, nil
}

// checkBounds compares edges by subtraction so huge widths cannot overflow.
func checkBounds(src *pixel.Buffer, r Rect) error {
	w, h := src.Width(), src.Height()
	if r.X < 0 || r.Y < 0 || r.X >= w || r.Y >= h || r.Width > w-r.X || r.Height > h-r.Y {
		return imgerr.New(imgerr.KindOutOfBounds,
			"clip rectangle (%d,%d)+%dx%d exceeds image extent %dx%d",
			r.X, r.Y, r.Width, r.Height, w, h)
	}
	return nil
}
