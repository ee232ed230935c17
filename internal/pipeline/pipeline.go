// Package pipeline runs a complete vineyard analysis: it loads the NIR and
// RGB orthomosaics, computes NDVI, aggregates it into grid cells, writes the
// grid image and reduces the grid to health statistics.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vineyard-health/internal/config"
	"github.com/ironsheep/vineyard-health/internal/grid"
	"github.com/ironsheep/vineyard-health/internal/health"
	"github.com/ironsheep/vineyard-health/internal/imaging"
	"github.com/ironsheep/vineyard-health/internal/logging"
	"github.com/ironsheep/vineyard-health/internal/vegetation"
)

// Stage names prefix the errors returned by Run.
const (
	StageConfig  = "config"
	StageLoad    = "load images"
	StageResize  = "resize"
	StageCrop    = "crop"
	StageIndex   = "vegetation index"
	StageGrid    = "grid"
	StageSave    = "save grid image"
	StageHeatmap = "heatmap"
	StageHealth  = "health"
)

// Result is the outcome of one analysis.
type Result struct {
	Stats *health.Stats      `json:"stats"`
	Index vegetation.Summary `json:"ndvi"`
	Grid  *grid.Result       `json:"-"`

	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Cells   int  `json:"cells"`
	Resized bool `json:"resized"`

	GridImagePath    string `json:"grid_image_filepath"`
	HeatmapImagePath string `json:"heatmap_image_filepath,omitempty"`
}

type options struct {
	log      zerolog.Logger
	progress health.ProgressFunc
	cache    *imaging.ImageCache
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger used for stage messages.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithProgress forwards the health scan progress to fn.
func WithProgress(fn health.ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithCache loads images through c instead of a private cache.
func WithCache(c *imaging.ImageCache) Option {
	return func(o *options) { o.cache = c }
}

func stageErr(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}

// Run executes the analysis described by cfg. The context is checked between
// stages; a stage that has started runs to completion.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = imaging.NewImageCache()
	}
	log := logging.Component(o.log, "pipeline")

	if cfg == nil {
		return nil, stageErr(StageConfig, fmt.Errorf("configuration is nil"))
	}
	c := *cfg
	cfg = &c
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, stageErr(StageConfig, err)
	}
	ev := log.Info()
	for _, f := range cfg.Fields() {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg("current configuration")

	// Load NIR and RGB orthomosaics
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Str("nir", cfg.NIRImagePath).Str("rgb", cfg.RGBImagePath).Msg("loading NIR and RGB images")
	nir, err := imaging.LoadGray(o.cache, cfg.NIRImagePath)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}
	red, err := imaging.LoadBand(o.cache, cfg.RGBImagePath, imaging.ChannelRed)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}

	// Co-register the red band with the NIR image
	redSize := red.Bounds().Size()
	red, resized, err := imaging.MatchSize(nir, red)
	if err != nil {
		return nil, stageErr(StageResize, err)
	}
	if resized {
		log.Warn().
			Str("nir_size", nir.Bounds().Size().String()).
			Str("red_size", redSize.String()).
			Msg("image sizes are not equal, red band resized to NIR size")
	}

	if cfg.Region != nil {
		if nir, red, err = cropBoth(nir, red, cfg.Region.Rect()); err != nil {
			return nil, stageErr(StageCrop, err)
		}
		log.Info().Str("region", cfg.Region.Rect().String()).Msg("cropped to region")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Msg("calculating vegetation index")
	ndvi, err := vegetation.NDVI(nir, red)
	if err != nil {
		return nil, stageErr(StageIndex, err)
	}
	summary := ndvi.Summary()
	log.Debug().
		Float64("min", summary.Min).
		Float64("max", summary.Max).
		Float64("mean", summary.Mean).
		Int("nan", summary.NaN).
		Msg("NDVI computed")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Int("grid_size_x", cfg.GridSizeX).Int("grid_size_y", cfg.GridSizeY).Msg("creating the grid")
	cells, err := grid.Aggregate(ndvi,
		grid.Geometry{CellWidth: cfg.GridSizeX, CellHeight: cfg.GridSizeY},
		grid.WithParallel(cfg.Parallel))
	if err != nil {
		return nil, stageErr(StageGrid, err)
	}

	log.Info().Str("path", cfg.GridImagePath).Msg("saving image with grid display")
	if err := imaging.SaveGray(cfg.GridImagePath, cells.Display); err != nil {
		return nil, stageErr(StageSave, err)
	}

	if cfg.HeatmapImagePath != "" {
		if err := saveHeatmap(cfg, cells.Display); err != nil {
			return nil, stageErr(StageHeatmap, err)
		}
		log.Info().Str("path", cfg.HeatmapImagePath).Msg("saved heatmap")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Msg("extracting vineyard health data")
	stats, err := health.Extract(cells.Analysis, cfg.VineyardHectares,
		health.Sentinels{Outside: cfg.Outside(), Ground: cfg.Ground()},
		health.WithParallel(cfg.Parallel),
		health.WithProgress(o.progress))
	if err != nil {
		return nil, stageErr(StageHealth, err)
	}

	size := nir.Bounds().Size()
	return &Result{
		Stats:            stats,
		Index:            summary,
		Grid:             cells,
		Width:            size.X,
		Height:           size.Y,
		Cells:            cells.Cells,
		Resized:          resized,
		GridImagePath:    cfg.GridImagePath,
		HeatmapImagePath: cfg.HeatmapImagePath,
	}, nil
}

func cropBoth(nir, red *image.Gray, r image.Rectangle) (*image.Gray, *image.Gray, error) {
	nc, err := imaging.Crop(nir, r)
	if err != nil {
		return nil, nil, err
	}
	rc, err := imaging.Crop(red, r)
	if err != nil {
		return nil, nil, err
	}
	return nc, rc, nil
}

func saveHeatmap(cfg *config.Config, img *image.Gray) error {
	low, err := imaging.ParseHexColor(cfg.Heatmap.LowColor)
	if err != nil {
		return err
	}
	high, err := imaging.ParseHexColor(cfg.Heatmap.HighColor)
	if err != nil {
		return err
	}
	return imaging.Save(cfg.HeatmapImagePath, imaging.Colorize(img, imaging.NewPalette(low, high)))
}
