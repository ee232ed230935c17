// Package imaging provides the raster I/O and drawing primitives used by the
// vineyard health pipeline.
//
// This package loads orthomosaic images from disk, extracts single bands as
// *image.Gray rasters, resizes one band to match another, draws cell fills and
// outlines, and writes rasters back out as lossless PNG. All operations work
// with standard Go image types and use a coordinate system where (0,0) is at
// the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right)
//
// # Bands
//
// Color images are split into bands with LoadBand. NIR imagery is usually a
// single-channel file and is read with LoadGray, which converts any color
// model to 8-bit luminance.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual operations are
// stateless and can be called concurrently on different images. Rasters
// returned from the cache are shared and must not be modified in place.
//
// # Output
//
// SaveGray only writes PNG so that a saved raster reads back pixel-identical.
// Colorize renders an 8-bit raster as a false-color heatmap for human review.
package imaging
