package imaging

import (
	"fmt"
	"image"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default heatmap endpoints: red for low intensities, green for high.
const (
	DefaultLowColor  = "#d7191c"
	DefaultHighColor = "#1a9641"
)

// ParseHexColor parses a hex color string like "#FF0000" or "ff0000".
func ParseHexColor(hex string) (colorful.Color, error) {
	if len(hex) == 0 {
		return colorful.Color{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

// Palette maps each 8-bit intensity onto a color.
type Palette [256]colorful.Color

// NewPalette blends low into high in CIE L*a*b*, which keeps the perceived
// brightness change even across the ramp.
func NewPalette(low, high colorful.Color) *Palette {
	var p Palette
	for i := range p {
		p[i] = low.BlendLab(high, float64(i)/255).Clamped()
	}
	return &p
}

// Colorize renders an 8-bit raster as a false-color image.
func Colorize(img *image.Gray, p *Palette) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+y):][:bounds.Dx()]
		dst := out.Pix[y*out.Stride:]
		for x, v := range src {
			r, g, b := p[v].RGB255()
			dst[x*4+0] = r
			dst[x*4+1] = g
			dst[x*4+2] = b
			dst[x*4+3] = 0xff
		}
	}
	return out
}
