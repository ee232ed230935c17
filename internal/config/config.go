// Package config loads the YAML run configuration of a vineyard analysis.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vineyard-health/internal/imaging"
	"github.com/ironsheep/vineyard-health/internal/logging"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Region is an optional crop rectangle in NIR pixel coordinates.
// (X1, Y1) is inclusive, (X2, Y2) exclusive.
type Region struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

// Rect returns the region as an image rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Heatmap configures the optional colorized grid output.
type Heatmap struct {
	LowColor  string `yaml:"low_color"`
	HighColor string `yaml:"high_color"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the run configuration.
//
// The sentinel colors are pointers so that a missing key can be told apart
// from an explicit 0, which is a common outside-vineyard value.
type Config struct {
	NIRImagePath     string  `yaml:"nir_image_filepath"`
	RGBImagePath     string  `yaml:"rgb_image_filepath"`
	GridImagePath    string  `yaml:"grid_image_filepath"`
	HeatmapImagePath string  `yaml:"heatmap_image_filepath"`
	GridSizeX        int     `yaml:"grid_size_x"`
	GridSizeY        int     `yaml:"grid_size_y"`
	VineyardHectares float64 `yaml:"vineyard_total_hectareas"`
	OutsideColor     *int    `yaml:"outside_vineyard_color"`
	GroundColor      *int    `yaml:"ground_color"`
	Parallel         bool    `yaml:"parallel"`
	Region           *Region `yaml:"region"`
	Heatmap          Heatmap `yaml:"heatmap"`
	Logging          Logging `yaml:"logging"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML data, applies defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills optional settings that were left empty.
func (c *Config) ApplyDefaults() {
	if c.Heatmap.LowColor == "" {
		c.Heatmap.LowColor = imaging.DefaultLowColor
	}
	if c.Heatmap.HighColor == "" {
		c.Heatmap.HighColor = imaging.DefaultHighColor
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	required := []struct{ key, value string }{
		{"nir_image_filepath", c.NIRImagePath},
		{"rgb_image_filepath", c.RGBImagePath},
		{"grid_image_filepath", c.GridImagePath},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}
	if c.GridImagePath != "" && !isPNG(c.GridImagePath) {
		errs = append(errs, fmt.Errorf("grid_image_filepath must be a .png file, got %q", c.GridImagePath))
	}
	if c.HeatmapImagePath != "" && !isPNG(c.HeatmapImagePath) {
		errs = append(errs, fmt.Errorf("heatmap_image_filepath must be a .png file, got %q", c.HeatmapImagePath))
	}

	if c.GridSizeX <= 0 {
		errs = append(errs, fmt.Errorf("grid_size_x must be positive, got %d", c.GridSizeX))
	}
	if c.GridSizeY <= 0 {
		errs = append(errs, fmt.Errorf("grid_size_y must be positive, got %d", c.GridSizeY))
	}
	if c.VineyardHectares <= 0 {
		errs = append(errs, fmt.Errorf("vineyard_total_hectareas must be positive, got %g", c.VineyardHectares))
	}

	errs = append(errs, checkSentinel("outside_vineyard_color", c.OutsideColor))
	errs = append(errs, checkSentinel("ground_color", c.GroundColor))

	if r := c.Region; r != nil {
		if r.X2 <= r.X1 || r.Y2 <= r.Y1 || r.X1 < 0 || r.Y1 < 0 {
			errs = append(errs, fmt.Errorf("region must satisfy 0 <= x1 < x2 and 0 <= y1 < y2, got (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2))
		}
	}

	for _, hc := range []struct{ key, value string }{
		{"heatmap.low_color", c.Heatmap.LowColor},
		{"heatmap.high_color", c.Heatmap.HighColor},
	} {
		if hc.value == "" {
			continue
		}
		if _, err := imaging.ParseHexColor(hc.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hc.key, err))
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func checkSentinel(key string, v *int) error {
	if v == nil {
		return fmt.Errorf("%s is required", key)
	}
	if *v < 0 || *v > 255 {
		return fmt.Errorf("%s must be between 0 and 255, got %d", key, *v)
	}
	return nil
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}

// Outside returns the outside-vineyard sentinel. Call only after Validate.
func (c *Config) Outside() uint8 { return uint8(*c.OutsideColor) }

// Ground returns the ground sentinel. Call only after Validate.
func (c *Config) Ground() uint8 { return uint8(*c.GroundColor) }

// Field is one key/value pair of the configuration.
type Field struct {
	Key   string
	Value any
}

// Fields lists the effective configuration in file order for logging.
func (c *Config) Fields() []Field {
	fields := []Field{
		{"nir_image_filepath", c.NIRImagePath},
		{"rgb_image_filepath", c.RGBImagePath},
		{"grid_image_filepath", c.GridImagePath},
		{"heatmap_image_filepath", c.HeatmapImagePath},
		{"grid_size_x", c.GridSizeX},
		{"grid_size_y", c.GridSizeY},
		{"vineyard_total_hectareas", c.VineyardHectares},
		{"outside_vineyard_color", derefInt(c.OutsideColor)},
		{"ground_color", derefInt(c.GroundColor)},
		{"parallel", c.Parallel},
	}
	if c.Region != nil {
		fields = append(fields, Field{"region", c.Region.Rect().String()})
	}
	return append(fields,
		Field{"heatmap.low_color", c.Heatmap.LowColor},
		Field{"heatmap.high_color", c.Heatmap.HighColor},
		Field{"logging.level", c.Logging.Level},
		Field{"logging.format", c.Logging.Format},
	)
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
