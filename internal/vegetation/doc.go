// Package vegetation computes normalized-difference vegetation indices from
// co-registered single-band rasters.
//
// Every index shares one formula shape, (A - B) / (A + B), evaluated per pixel
// in float32 after promoting the 8-bit band samples:
//
//   - NDVI:  (NIR - Red)     / (NIR + Red)
//   - GNDVI: (NIR - Green)   / (NIR + Green)
//   - NDRE:  (NIR - RedEdge) / (NIR + RedEdge)
//   - NDWI:  (Green - NIR)   / (Green + NIR)
//
// # Unclamped Output
//
// Results are not clamped to [-1, 1] and non-finite values are not repaired.
// A pixel where both bands are zero yields NaN and is propagated downstream
// unchanged; callers that aggregate index rasters must expect it.
//
// # Error Handling
//
// Band shape mismatches are reported as a *ComputationError wrapping a
// *ShapeMismatchError. The bands are expected to have been resized to a common
// size before any index is computed.
package vegetation
