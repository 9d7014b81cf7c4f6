package processor

import (
	"fmt"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/unimage/internal/imgerr"
	"github.com/ironsheep/unimage/internal/pixel"
)

// RGBAColor holds 8-bit components. A is 255 for RGB images.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor is a colour in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult describes one pixel in several notations.
type ColorResult struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// SampleColor reads the pixel at (x, y).
//
// Coordinates are 0-based from the top-left corner; valid X is 0 to
// width-1 and valid Y is 0 to height-1.
func (p *Processor) SampleColor(x, y int) (*ColorResult, error) {
	if err := p.checkLive(); err != nil {
		return nil, err
	}
	if p.buf.IsEmpty() {
		return nil, p.fail(imgerr.New(imgerr.KindNoImageLoaded, "sample: no image loaded"))
	}
	if x < 0 || y < 0 || x >= p.buf.Width() || y >= p.buf.Height() {
		return nil, p.fail(imgerr.New(imgerr.KindOutOfBounds,
			"sample point (%d,%d) outside image extent %dx%d", x, y, p.buf.Width(), p.buf.Height()))
	}

	c := pixelAt(p.buf, x, y)
	return &ColorResult{
		X:    x,
		Y:    y,
		Hex:  fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
		RGBA: c,
		HSL:  toHSL(c),
	}, nil
}

// ColorFrequency is a quantized colour and its share of the image.
type ColorFrequency struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"` // 0-100
	Count      int     `json:"count"`
}

// DominantColors returns up to count of the most frequent colours after
// quantizing each channel down to a multiple of 16. Ties are ordered by hex
// value so the result is deterministic.
func (p *Processor) DominantColors(count int) ([]ColorFrequency, error) {
	if err := p.checkLive(); err != nil {
		return nil, err
	}
	if p.buf.IsEmpty() {
		return nil, p.fail(imgerr.New(imgerr.KindNoImageLoaded, "dominant colors: no image loaded"))
	}
	if count < 1 {
		return nil, p.fail(imgerr.New(imgerr.KindInvalidDimensions,
			"dominant colors: count %d must be at least 1", count))
	}

	counts := make(map[[3]uint8]int)
	total := p.buf.Width() * p.buf.Height()
	for y := 0; y < p.buf.Height(); y++ {
		for x := 0; x < p.buf.Width(); x++ {
			c := pixelAt(p.buf, x, y)
			counts[[3]uint8{c.R / 16 * 16, c.G / 16 * 16, c.B / 16 * 16}]++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", k[0], k[1], k[2]),
			Percentage: float64(n) / float64(total) * 100,
			Count:      n,
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Count != colors[j].Count {
			return colors[i].Count > colors[j].Count
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return colors, nil
}

func pixelAt(buf *pixel.Buffer, x, y int) RGBAColor {
	off := buf.PixOffset(x, y)
	pix := buf.Pix()
	c := RGBAColor{R: pix[off], G: pix[off+1], B: pix[off+2], A: 255}
	if buf.Format() == pixel.FormatRGBA {
		c.A = pix[off+3]
	}
	return c
}

func toHSL(c RGBAColor) HSLColor {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
