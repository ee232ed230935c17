package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// FillRect sets every pixel of r (clipped to img) to c.
func FillRect(img *image.Gray, r image.Rectangle, c color.Gray) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):][:r.Dx()]
		for i := range row {
			row[i] = c.Y
		}
	}
}

// OutlineRect draws the 1-pixel border of the width x height rectangle whose
// top-left corner is origin. Border pixels outside img are skipped, so a
// rectangle that overhangs the right or bottom edge loses those sides.
func OutlineRect(img *image.Gray, origin image.Point, width, height int, c color.Gray) {
	if width <= 0 || height <= 0 {
		return
	}
	bounds := img.Bounds()
	x0, y0 := origin.X, origin.Y
	x1, y1 := x0+width-1, y0+height-1

	// Draw horizontal lines
	for _, y := range []int{y0, y1} {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := max(x0, bounds.Min.X); x <= min(x1, bounds.Max.X-1); x++ {
			img.SetGray(x, y, c)
		}
	}

	// Draw vertical lines
	for _, x := range []int{x0, x1} {
		if x < bounds.Min.X || x >= bounds.Max.X {
			continue
		}
		for y := max(y0, bounds.Min.Y); y <= min(y1, bounds.Max.Y-1); y++ {
			img.SetGray(x, y, c)
		}
	}
}

// EncodedImage is a PNG-encoded raster ready for a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNGBase64 encodes img as PNG and wraps it in base64.
func EncodePNGBase64(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
