// Package geometry converts annotation shapes between render-space pixels
// and the canonical fractional coordinate space.
//
// Persisted geometry is always fractional: each coordinate is the float64
// ratio of the pixel position to the frame dimension, in [0, 1]. Values may
// slightly exceed 1 from stroke overdraw and are deliberately not clamped.
// Conversion happens exactly twice in a shape's life: Normalize once at
// creation time against the surface the reviewer drew on, and Denormalize
// on every render against the live size of the target video element.
package geometry

import (
	"github.com/frameproof/frameproof/internal/domain/model"
)

// Normalize converts a shape whose points are in absolute pixels of a
// frame with the given dimensions into fractional space.
//
// Returns ErrZeroDimensions when either dimension is not yet measured
// (<= 0); callers must defer and retry once a valid measurement arrives,
// never surface this to the user.
func Normalize(shape model.Shape, frameWidth, frameHeight float64) (model.Shape, error) {
	return scale(shape, frameWidth, frameHeight, true)
}

// Denormalize projects a fractional-space shape onto a render surface of
// the given pixel dimensions. Inverse of Normalize; lossless up to
// floating-point rounding.
func Denormalize(shape model.Shape, targetWidth, targetHeight float64) (model.Shape, error) {
	return scale(shape, targetWidth, targetHeight, false)
}

func scale(shape model.Shape, w, h float64, divide bool) (model.Shape, error) {
	if w <= 0 || h <= 0 {
		return model.Shape{}, ErrZeroDimensions
	}

	out := shape.Clone()
	switch shape.Kind {
	case model.ShapePath, model.ShapeCircle, model.ShapeRect, model.ShapeText:
		for i := range out.Points {
			if divide {
				out.Points[i].X /= w
				out.Points[i].Y /= h
			} else {
				out.Points[i].X *= w
				out.Points[i].Y *= h
			}
		}
	default:
		return model.Shape{}, ErrUnknownShapeKind
	}
	return out, nil
}

// NormalizeAll normalizes a slice of shapes against one source frame.
// Fails atomically: either every shape converts or none are returned.
func NormalizeAll(shapes []model.Shape, frameWidth, frameHeight float64) ([]model.Shape, error) {
	out := make([]model.Shape, len(shapes))
	for i, s := range shapes {
		n, err := Normalize(s, frameWidth, frameHeight)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// DenormalizeAll projects a slice of fractional shapes onto one target
// surface. Fails atomically like NormalizeAll.
func DenormalizeAll(shapes []model.Shape, targetWidth, targetHeight float64) ([]model.Shape, error) {
	out := make([]model.Shape, len(shapes))
	for i, s := range shapes {
		d, err := Denormalize(s, targetWidth, targetHeight)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
