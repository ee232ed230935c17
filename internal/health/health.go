// Package health reduces a grid-aggregated vegetation raster to vineyard
// health statistics.
//
// Every pixel is classified by exact equality against two sentinel
// intensities: pixels equal to the outside sentinel are not part of the
// vineyard, pixels equal to the ground sentinel are vineyard but not plant, and
// every other pixel is a plant pixel whose intensity contributes to the mean
// health.
//
// # Percentage Mapping
//
// MeanHealthPercentage maps MeanHealth linearly from [-1, 1] onto [0, 100],
// the theoretical range of the index rather than the [0, 1] range MeanHealth
// actually spans. A mean health of 0 reports 50%. The domain is intentionally
// the index range; do not correct it.
package health

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/interp"
)

// ErrNilImage is returned when Extract is given no raster.
var ErrNilImage = errors.New("vineyard raster is nil")

// DegenerateInputError reports a raster with no vineyard or no plant pixels.
type DegenerateInputError struct {
	Reason         string
	VineyardPixels int
	PlantPixels    int
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("cannot compute vineyard health: %s (vineyard pixels=%d, plant pixels=%d)",
		e.Reason, e.VineyardPixels, e.PlantPixels)
}

// Sentinels are the intensities that mark non-plant pixels.
type Sentinels struct {
	Outside uint8 // outside the vineyard
	Ground  uint8 // bare ground between rows
}

// Stats are the health figures of one vineyard raster.
type Stats struct {
	TotalVineyardPixels  int     `json:"total_vineyard_pixels"`
	TotalPlantPixels     int     `json:"total_plant_pixels"`
	VineArea             float64 `json:"vine_area"`
	MeanHealth           float64 `json:"mean_health"`
	MeanHealthPercentage float64 `json:"mean_health_percentage"`
}

// ProgressFunc is told how many of total rows have been classified.
// It may be called from several goroutines, but never concurrently.
type ProgressFunc func(done, total int)

type options struct {
	progress ProgressFunc
	parallel bool
}

// Option configures Extract.
type Option func(*options)

// WithProgress reports scan progress after every row.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithParallel classifies bands of rows concurrently. Counts and sums are
// integers, so the result is identical to the sequential scan.
func WithParallel(enabled bool) Option {
	return func(o *options) { o.parallel = enabled }
}

// tally is the reduction state of a scan.
type tally struct {
	vineyard int
	plant    int
	sum      uint64
}

func (t *tally) add(o tally) {
	t.vineyard += o.vineyard
	t.plant += o.plant
	t.sum += o.sum
}

// classify counts the rows [start, end) of img (relative to its bounds).
func classify(img *image.Gray, s Sentinels, start, end int) tally {
	var t tally
	b := img.Bounds()
	for y := start; y < end; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()]
		for _, v := range row {
			if v != s.Outside {
				t.vineyard++
			}
			if v != s.Outside && v != s.Ground {
				t.plant++
				t.sum += uint64(v)
			}
		}
	}
	return t
}

// Extract classifies every pixel of img and derives the vineyard statistics.
//
// totalArea is the real-world area covered by the vineyard pixels; VineArea is
// reported in the same unit.
func Extract(img *image.Gray, totalArea float64, s Sentinels, opts ...Option) (*Stats, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	height := img.Bounds().Dy()
	var (
		mu    sync.Mutex
		total tally
		done  int
	)
	scan := func(start, end int) {
		for y := start; y < end; y++ {
			t := classify(img, s, y, y+1)
			mu.Lock()
			total.add(t)
			done++
			if o.progress != nil {
				o.progress(done, height)
			}
			mu.Unlock()
		}
	}

	if o.parallel {
		parallel.Line(height, scan)
	} else {
		scan(0, height)
	}

	if total.vineyard == 0 {
		return nil, &DegenerateInputError{Reason: "no vineyard pixels", VineyardPixels: total.vineyard, PlantPixels: total.plant}
	}
	if total.plant == 0 {
		return nil, &DegenerateInputError{Reason: "no plant pixels", VineyardPixels: total.vineyard, PlantPixels: total.plant}
	}

	meanHealth := float64(total.sum) / float64(total.plant) / 255
	return &Stats{
		TotalVineyardPixels:  total.vineyard,
		TotalPlantPixels:     total.plant,
		VineArea:             float64(total.plant) * totalArea / float64(total.vineyard),
		MeanHealth:           meanHealth,
		MeanHealthPercentage: Percentage(meanHealth),
	}, nil
}

var percentageScale = func() interp.PiecewiseLinear {
	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{-1, 1}, []float64{0, 100}); err != nil {
		panic(err)
	}
	return pl
}()

// Percentage maps a health value from [-1, 1] onto [0, 100]. Values outside
// the domain take the nearest endpoint.
func Percentage(v float64) float64 {
	return percentageScale.Predict(v)
}
