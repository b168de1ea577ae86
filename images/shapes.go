// Package images - Geometry primitives shared by the model wrappers.
package images

import "github.com/chewxy/math32"

// Point is a 2D point in pixel coordinates.
type Point struct {
	X, Y float32
}

// Rect is a lightweight bounding box in pixel coordinates.
// X2,Y2 are exclusive (like image.Rectangle).
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 { return r.X2 - r.X1 }

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

// Area returns the area of the box. Inverted boxes yield negative values;
// callers that care (IoU) must guard for that themselves.
func (r Rect) Area() float32 { return r.Width() * r.Height() }

// CenterX returns the horizontal center of the box.
func (r Rect) CenterX() float32 { return (r.X1 + r.X2) / 2 }

// CenterY returns the vertical center of the box.
func (r Rect) CenterY() float32 { return (r.Y1 + r.Y2) / 2 }

// FromCenter builds a Rect from a center point and full width/height.
func FromCenter(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// CalculateIoU computes the Intersection over Union of two boxes.
//
// The union area is computed by inclusion-exclusion:
//
//	Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
// Non-overlapping and degenerate (zero-area) boxes yield 0, never a
// division by zero.
func CalculateIoU(r, o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// Clamp limits v to the interval [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}
