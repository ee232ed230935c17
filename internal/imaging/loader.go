package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/channel"
	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant
// disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an
// image is loaded, subsequent Load() calls for the same path return the cached
// copy without disk I/O.
//
// # Memory Management
//
// Orthomosaics are large. Cached images remain in memory until explicitly
// removed via Evict() or Clear(); the one-shot CLI does not use a shared cache,
// the MCP server does.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	nir, err := imaging.LoadGray(cache, "/data/nir.tif")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/data/nir.tif") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Supported formats are those of disintegration/imaging: PNG, JPEG, GIF, TIFF
// and BMP. EXIF orientation is applied so drone JPEGs come out upright.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Channel selects a band of a color image.
type Channel int

const (
	ChannelGray Channel = iota
	ChannelRed
	ChannelGreen
	ChannelBlue
)

func (c Channel) String() string {
	switch c {
	case ChannelGray:
		return "gray"
	case ChannelRed:
		return "red"
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ParseChannel resolves "gray", "red", "green" or "blue" (case-insensitive).
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(name) {
	case "gray", "grey", "":
		return ChannelGray, nil
	case "red", "r":
		return ChannelRed, nil
	case "green", "g":
		return ChannelGreen, nil
	case "blue", "b":
		return ChannelBlue, nil
	}
	return 0, fmt.Errorf("unknown channel: %q", name)
}

// ToGray returns img as an 8-bit luminance raster. *image.Gray inputs are
// returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// ExtractBand returns one band of img as an *image.Gray.
func ExtractBand(img image.Image, c Channel) (*image.Gray, error) {
	switch c {
	case ChannelGray:
		return ToGray(img), nil
	case ChannelRed:
		return channel.Extract(img, channel.Red), nil
	case ChannelGreen:
		return channel.Extract(img, channel.Green), nil
	case ChannelBlue:
		return channel.Extract(img, channel.Blue), nil
	}
	return nil, fmt.Errorf("unknown channel: %v", c)
}

// LoadGray loads the image at path and converts it to 8-bit luminance.
func LoadGray(cache *ImageCache, path string) (*image.Gray, error) {
	return LoadBand(cache, path, ChannelGray)
}

// LoadBand loads the image at path and extracts a single band.
func LoadBand(cache *ImageCache, path string, c Channel) (*image.Gray, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	band, err := ExtractBand(img, c)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s band from %s: %w", c, path, err)
	}
	return band, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image file, loading it into the
// cache if not already present.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
