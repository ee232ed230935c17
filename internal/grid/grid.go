// Package grid aggregates a vegetation index raster into rectangular cells
// and renders the per-cell values as 8-bit rasters.
//
// Aggregate produces two rasters of the input's size: an analysis raster in
// which every pixel holds its cell's intensity, and a display raster that is
// the same image with a 1-pixel white outline drawn around each cell.
//
// # Intensity Scaling
//
// A cell's intensity is trunc(mean * 255 * 20) stored in a uint8. The scale is
// not normalized against the index's [-1, 1] range and the result is not
// clamped: values outside 0..255 wrap modulo 256, so a mean of 0.5 becomes
// 2550 and is stored as 246. Downstream statistics depend on this exact
// behavior. Cells whose mean is NaN or infinite store 0.
//
// Cell means are accumulated in float64 over the float32 samples. Near an
// integer boundary of mean * 5100 the intensity can therefore differ by one
// from a mean summed in float32.
package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/vineyard-health/internal/imaging"
	"github.com/ironsheep/vineyard-health/internal/vegetation"
)

// IntensityScale maps a cell mean onto the 8-bit intensity domain.
const IntensityScale = 255 * 20

// LineColor is the outline value drawn into the display raster.
var LineColor = color.Gray{Y: 255}

// ErrNilRaster is returned when Aggregate is given no raster.
var ErrNilRaster = errors.New("index raster is nil")

// InvalidGeometryError reports a cell size that cannot tile a raster.
type InvalidGeometryError struct {
	CellWidth  int
	CellHeight int
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid grid cell size %dx%d: width and height must be positive", e.CellWidth, e.CellHeight)
}

// Geometry is the nominal cell size in pixels.
type Geometry struct {
	CellWidth  int
	CellHeight int
}

// Validate rejects non-positive cell dimensions.
func (g Geometry) Validate() error {
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		return &InvalidGeometryError{CellWidth: g.CellWidth, CellHeight: g.CellHeight}
	}
	return nil
}

// Result holds the two rasters produced by Aggregate.
type Result struct {
	// Analysis carries the cell intensities without grid lines.
	Analysis *image.Gray
	// Display carries the cell intensities with cell outlines drawn on top.
	Display *image.Gray
	// Cells is the number of cells visited.
	Cells int
}

type options struct {
	parallel bool
}

// Option configures Aggregate.
type Option func(*options)

// WithParallel processes rows of cells concurrently. Output is identical to
// the sequential pass.
func WithParallel(enabled bool) Option {
	return func(o *options) { o.parallel = enabled }
}

// Cells partitions a width x height raster into row-major cells starting at
// (0,0). Cells in the last row and column are clipped to the raster.
func Cells(width, height int, g Geometry) []image.Rectangle {
	if g.CellWidth <= 0 || g.CellHeight <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	bounds := image.Rect(0, 0, width, height)
	cols := (width + g.CellWidth - 1) / g.CellWidth
	rows := (height + g.CellHeight - 1) / g.CellHeight

	cells := make([]image.Rectangle, 0, rows*cols)
	for y := 0; y < height; y += g.CellHeight {
		for x := 0; x < width; x += g.CellWidth {
			cells = append(cells, image.Rect(x, y, x+g.CellWidth, y+g.CellHeight).Intersect(bounds))
		}
	}
	return cells
}

// Intensity converts a cell mean into its stored 8-bit value.
func Intensity(mean float64) uint8 {
	v := math.Mod(math.Trunc(mean*IntensityScale), 256)
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		v += 256
	}
	return uint8(v)
}

// CellMean returns the arithmetic mean of the samples inside r.
func CellMean(src *vegetation.Raster, r image.Rectangle) float64 {
	samples := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, v := range src.Row(y)[r.Min.X:r.Max.X] {
			samples = append(samples, float64(v))
		}
	}
	return stat.Mean(samples, nil)
}

// Aggregate tiles src with cells of size g, fills every cell with the
// intensity of its mean and returns the analysis and display rasters.
func Aggregate(src *vegetation.Raster, g Geometry, opts ...Option) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilRaster
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bounds := src.Bounds()
	analysis := image.NewGray(bounds)
	display := image.NewGray(bounds)
	cells := Cells(src.Width, src.Height, g)
	cols := (src.Width + g.CellWidth - 1) / g.CellWidth

	fillRows := func(start, end int) {
		for row := start; row < end; row++ {
			for _, cell := range cells[row*cols : (row+1)*cols] {
				v := color.Gray{Y: Intensity(CellMean(src, cell))}
				imaging.FillRect(analysis, cell, v)
				imaging.FillRect(display, cell, v)
				imaging.OutlineRect(display, cell.Min, g.CellWidth, g.CellHeight, LineColor)
			}
		}
	}

	rows := 0
	if cols > 0 {
		rows = len(cells) / cols
	}
	if o.parallel {
		// Cells never overlap, so rows of cells write disjoint pixels.
		parallel.Line(rows, fillRows)
	} else {
		fillRows(0, rows)
	}

	return &Result{Analysis: analysis, Display: display, Cells: len(cells)}, nil
}
