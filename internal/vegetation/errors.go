package vegetation

import (
	"errors"
	"fmt"
	"image"
)

// ErrNilBand is returned when a band raster is missing.
var ErrNilBand = errors.New("band raster is nil")

// ShapeMismatchError reports two bands that cannot be combined elementwise.
type ShapeMismatchError struct {
	A image.Point // width, height of the first operand
	B image.Point // width, height of the second operand
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("band shapes differ: %dx%d vs %dx%d", e.A.X, e.A.Y, e.B.X, e.B.Y)
}

// ComputationError wraps the failure that prevented an index from being computed.
type ComputationError struct {
	Index string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("error computing %s: %v", e.Index, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
