package vegetation

import (
	"fmt"
	"image"
	"strings"
)

// Index identifies one of the supported normalized-difference indices.
type Index int

const (
	IndexNDVI Index = iota
	IndexGNDVI
	IndexNDRE
	IndexNDWI
)

var indexNames = [...]string{
	IndexNDVI:  "NDVI",
	IndexGNDVI: "GNDVI",
	IndexNDRE:  "NDRE",
	IndexNDWI:  "NDWI",
}

func (i Index) String() string {
	if i < 0 || int(i) >= len(indexNames) {
		return fmt.Sprintf("Index(%d)", int(i))
	}
	return indexNames[i]
}

// ParseIndex resolves a case-insensitive index name such as "ndvi".
func ParseIndex(name string) (Index, error) {
	for i, n := range indexNames {
		if strings.EqualFold(name, n) {
			return Index(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vegetation index: %q", name)
}

// Compute evaluates idx from a NIR band and the index's companion band
// (red, green or red edge).
func Compute(idx Index, nir, band *image.Gray) (*Raster, error) {
	switch idx {
	case IndexNDVI:
		return NDVI(nir, band)
	case IndexGNDVI:
		return GNDVI(nir, band)
	case IndexNDRE:
		return NDRE(nir, band)
	case IndexNDWI:
		return NDWI(nir, band)
	default:
		return nil, fmt.Errorf("unknown vegetation index: %v", idx)
	}
}

// NDVI computes the Normalized Difference Vegetation Index, a measure of
// vegetation vigor that quantifies the "greenness" of plants.
func NDVI(nir, red *image.Gray) (*Raster, error) {
	return normalizedDifference(IndexNDVI, nir, red)
}

// GNDVI is NDVI with the green band in place of the red band.
func GNDVI(nir, green *image.Gray) (*Raster, error) {
	return normalizedDifference(IndexGNDVI, nir, green)
}

// NDRE is sensitive to chlorophyll content and canopy structure.
func NDRE(nir, redEdge *image.Gray) (*Raster, error) {
	return normalizedDifference(IndexNDRE, nir, redEdge)
}

// NDWI is the water index; its operands are swapped: (G - NIR) / (G + NIR).
func NDWI(nir, green *image.Gray) (*Raster, error) {
	return normalizedDifference(IndexNDWI, green, nir)
}

// NormalizedDifference computes (a - b) / (a + b) for every pixel.
//
// The bands are promoted to float32 and divided without guarding the
// denominator, so 0/0 pixels become NaN.
func NormalizedDifference(a, b *image.Gray) (*Raster, error) {
	return normalizedDifference(-1, a, b)
}

func normalizedDifference(idx Index, a, b *image.Gray) (*Raster, error) {
	name := "normalized difference"
	if idx >= 0 {
		name = idx.String()
	}
	if a == nil || b == nil {
		return nil, &ComputationError{Index: name, Err: ErrNilBand}
	}

	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return nil, &ComputationError{
			Index: name,
			Err:   &ShapeMismatchError{A: ab.Size(), B: bb.Size()},
		}
	}

	width, height := ab.Dx(), ab.Dy()
	out := NewRaster(width, height)
	for y := 0; y < height; y++ {
		rowA := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):][:width]
		rowB := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):][:width]
		dst := out.Row(y)
		for x := range dst {
			av, bv := float32(rowA[x]), float32(rowB[x])
			dst[x] = (av - bv) / (av + bv)
		}
	}
	return out, nil
}
