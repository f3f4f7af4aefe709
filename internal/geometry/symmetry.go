// Package geometry maps points and primitive strokes to their orbit under a
// rosette symmetry group (cyclic Cn or dihedral Dn) about a fixed center.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	MinOrder = 1
	MaxOrder = 24

	// Tolerance is the distance under which a D1 mirror copy is treated as
	// identical to its source.
	Tolerance = 1e-6
)

// Symmetry describes a rosette group: Order rotations about Center, and
// optionally the Order mirror axes that turn Cn into Dn.
type Symmetry struct {
	Order   int
	Reflect bool
	Center  r2.Vec
}

// Segment is a pair of transformed anchor points.
type Segment struct {
	A, B r2.Vec
}

// Member is one element of the group: a rotation by Angle, applied after an
// optional mirror across the vertical axis through the center.
type Member struct {
	Angle   float64
	Reflect bool

	rot    r2.Rotation
	center r2.Vec
}

// Validate reports whether the order is within the supported range.
func (s Symmetry) Validate() error {
	if s.Order < MinOrder || s.Order > MaxOrder {
		return fmt.Errorf("rotation order %d outside %d..%d", s.Order, MinOrder, MaxOrder)
	}
	return nil
}

// GroupSize returns N for Cn and 2N for Dn.
func (s Symmetry) GroupSize() int {
	if s.Reflect {
		return 2 * s.Order
	}
	return s.Order
}

// Step returns the rotation step angle 2π/N.
func (s Symmetry) Step() float64 {
	if s.Order < 1 {
		return 0
	}
	return 2 * math.Pi / float64(s.Order)
}

// Members lists the group elements in drawing order: every rotation followed
// by its mirrored partner when reflection is on. Index 0 is the identity.
func (s Symmetry) Members() []Member {
	n := s.Order
	if n < 1 {
		n = 1
	}
	step := 2 * math.Pi / float64(n)
	out := make([]Member, 0, s.GroupSize())
	for i := 0; i < n; i++ {
		angle := float64(i) * step
		rot := r2.NewRotation(angle, s.Center)
		out = append(out, Member{Angle: angle, rot: rot, center: s.Center})
		if s.Reflect {
			out = append(out, Member{Angle: angle, Reflect: true, rot: rot, center: s.Center})
		}
	}
	return out
}

// Apply maps p through the member.
func (m Member) Apply(p r2.Vec) r2.Vec {
	if m.Reflect {
		p.X = 2*m.center.X - p.X
	}
	return m.rot.Rotate(p)
}

// plainMirror reports whether the member set needs the D1 duplicate check.
func (s Symmetry) plainMirror() bool {
	return s.Order == 1 && s.Reflect
}

// OrbitPoint returns the orbit of a single point.
func (s Symmetry) OrbitPoint(p r2.Vec) []r2.Vec {
	members := s.Members()
	out := make([]r2.Vec, 0, len(members))
	for _, m := range members {
		q := m.Apply(p)
		if m.Reflect && s.plainMirror() && r2.Norm(r2.Sub(q, p)) <= Tolerance {
			continue
		}
		out = append(out, q)
	}
	return out
}

// OrbitSegment returns the orbit of the segment a-b. Rectangle and oval tools
// interpret each result as the corners of a bounding box.
func (s Symmetry) OrbitSegment(a, b r2.Vec) []Segment {
	members := s.Members()
	out := make([]Segment, 0, len(members))
	for _, m := range members {
		seg := Segment{A: m.Apply(a), B: m.Apply(b)}
		if m.Reflect && s.plainMirror() &&
			r2.Norm(r2.Sub(seg.A, a)) <= Tolerance && r2.Norm(r2.Sub(seg.B, b)) <= Tolerance {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// OrbitPath transforms a whole polyline once per member. Every member is
// computed from the input points, never from another copy.
func (s Symmetry) OrbitPath(path []r2.Vec) [][]r2.Vec {
	if len(path) == 0 {
		return nil
	}
	members := s.Members()
	out := make([][]r2.Vec, 0, len(members))
	for _, m := range members {
		moved := make([]r2.Vec, len(path))
		differs := false
		for i, p := range path {
			moved[i] = m.Apply(p)
			if r2.Norm(r2.Sub(moved[i], p)) > Tolerance {
				differs = true
			}
		}
		if m.Reflect && s.plainMirror() && !differs {
			continue
		}
		out = append(out, moved)
	}
	return out
}

// Axes returns the angles of the guide lines: N lines at i·π/N for Dn, the
// N sector boundaries at i·2π/N for Cn with N > 1, and nothing for C1.
//
// Members mirror across the vertical axis, so the true mirror axes of Dn sit
// at π/2 + i·π/N. For even N that set equals i·π/N; for odd N the guides are
// offset from the mirrors by π/(2N) (D1 draws a horizontal guide while its
// mirror is vertical). The guides keep the i·π/N layout saved drawings and
// exports already show.
func (s Symmetry) Axes() []float64 {
	n := s.Order
	if n < 1 || (n == 1 && !s.Reflect) {
		return nil
	}
	inc := s.Step()
	if s.Reflect {
		inc /= 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * inc
	}
	return out
}

// RayToBounds extends a ray from center at angle to the nearest edge of a
// w×h canvas.
func RayToBounds(center r2.Vec, angle, w, h float64) r2.Vec {
	const eps = 1e-9
	sin, cos := math.Sincos(angle)
	t := math.Inf(1)
	if math.Abs(cos) > eps {
		for _, edge := range []float64{-center.X / cos, (w - center.X) / cos} {
			if edge >= -eps {
				t = math.Min(t, edge)
			}
		}
	}
	if math.Abs(sin) > eps {
		for _, edge := range []float64{-center.Y / sin, (h - center.Y) / sin} {
			if edge >= -eps {
				t = math.Min(t, edge)
			}
		}
	}
	if math.IsInf(t, 1) || t < eps {
		t = math.Max(w, h) * 1.5
	}
	return r2.Vec{X: center.X + t*cos, Y: center.Y + t*sin}
}
