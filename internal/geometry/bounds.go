package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned box in logical canvas coordinates.
type Rect struct {
	Min, Max r2.Vec
}

// NoRect is the empty box; it is the identity for Union.
var NoRect = Rect{
	Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
	Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
}

// Empty reports whether the box contains no point. Degenerate boxes such as
// a horizontal segment are not empty.
func (r Rect) Empty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// BoundsOf returns the bounding box of the given points.
func BoundsOf(points ...r2.Vec) Rect {
	if len(points) == 0 {
		return NoRect
	}
	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Union returns the smallest box containing both. An empty box is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		Min: r2.Vec{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: r2.Vec{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}

// Inset grows the box by pad on every side (shrinks for negative pad).
func (r Rect) Inset(pad float64) Rect {
	if r.Empty() {
		return r
	}
	return Rect{
		Min: r2.Vec{X: r.Min.X - pad, Y: r.Min.Y - pad},
		Max: r2.Vec{X: r.Max.X + pad, Y: r.Max.Y + pad},
	}
}

// Pixels converts the box to physical pixels at the given device pixel
// ratio, rounding outward.
func (r Rect) Pixels(scale float64) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.Min.X*scale)), int(math.Floor(r.Min.Y*scale)),
		int(math.Ceil(r.Max.X*scale)), int(math.Ceil(r.Max.Y*scale)),
	)
}

// SegmentBounds returns the box around every segment of an orbit.
func SegmentBounds(segs []Segment) Rect {
	r := NoRect
	for _, s := range segs {
		r = r.Union(BoundsOf(s.A, s.B))
	}
	return r
}

// PathBounds returns the box around every polyline of an orbit.
func PathBounds(paths [][]r2.Vec) Rect {
	r := NoRect
	for _, p := range paths {
		r = r.Union(BoundsOf(p...))
	}
	return r
}
