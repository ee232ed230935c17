package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Crop copies the region r of img into a new raster with its origin at (0,0).
func Crop(img *image.Gray, r image.Rectangle) (*image.Gray, error) {
	bounds := img.Bounds()

	// Validate coordinates
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		copy(out.Pix[y*out.Stride:][:r.Dx()], img.Pix[img.PixOffset(r.Min.X, r.Min.Y+y):])
	}
	return out, nil
}

// ResizeGray resamples img to width x height with a bilinear filter.
func ResizeGray(img *image.Gray, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	resized := imaging.Resize(img, width, height, imaging.Linear)
	// Resize always yields NRGBA; every channel carries the gray value.
	return ExtractBand(resized, ChannelRed)
}

// MatchSize resizes img to the dimensions of ref when they differ. The
// boolean reports whether a resize happened.
func MatchSize(ref, img *image.Gray) (*image.Gray, bool, error) {
	want := ref.Bounds().Size()
	if img.Bounds().Size() == want {
		return img, false, nil
	}
	resized, err := ResizeGray(img, want.X, want.Y)
	if err != nil {
		return nil, false, err
	}
	return resized, true, nil
}
