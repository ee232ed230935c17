package vegetation

import (
	"image"
	"math"
)

// Raster is a row-major float32 index image.
//
// Pix holds Width*Height samples; the sample at (x, y) is Pix[y*Width+x].
type Raster struct {
	Width  int
	Height int
	Pix    []float32
}

// NewRaster allocates a zero-filled raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// Bounds returns the raster extent with its origin at (0,0).
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At returns the sample at (x, y).
func (r *Raster) At(x, y int) float32 {
	return r.Pix[y*r.Width+x]
}

// Set stores v at (x, y).
func (r *Raster) Set(x, y int, v float32) {
	r.Pix[y*r.Width+x] = v
}

// Row returns the samples of row y.
func (r *Raster) Row(y int) []float32 {
	return r.Pix[y*r.Width : (y+1)*r.Width]
}

// Summary describes the value distribution of an index raster.
type Summary struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Finite int     `json:"finite_pixels"`
	NaN    int     `json:"nan_pixels"`
	Inf    int     `json:"inf_pixels"`
}

// Summary computes min, max and mean over the finite samples and counts the
// non-finite ones. Min, Max and Mean are zero when no sample is finite.
func (r *Raster) Summary() Summary {
	s := Summary{Width: r.Width, Height: r.Height}
	var sum float64
	for _, v := range r.Pix {
		f := float64(v)
		switch {
		case math.IsNaN(f):
			s.NaN++
			continue
		case math.IsInf(f, 0):
			s.Inf++
			continue
		}
		if s.Finite == 0 || f < s.Min {
			s.Min = f
		}
		if s.Finite == 0 || f > s.Max {
			s.Max = f
		}
		sum += f
		s.Finite++
	}
	if s.Finite > 0 {
		s.Mean = sum / float64(s.Finite)
	}
	return s
}
