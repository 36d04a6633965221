// Package mesh defines the triangle-soup types shared by the codec and the
// transform pipeline.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is one independent face of a triangle soup.
type Triangle struct {
	Normal   mgl32.Vec3
	Vertices [3]mgl32.Vec3
	Attr     uint16 // binary STL attribute byte count, passed through
}

// String returns a compact human-readable form.
func (t Triangle) String() string {
	return fmt.Sprintf("n%v v%v %v %v", t.Normal, t.Vertices[0], t.Vertices[1], t.Vertices[2])
}

// FaceNormal computes the unit normal from the winding of the vertices.
// Degenerate triangles yield the zero vector.
func (t Triangle) FaceNormal() mgl32.Vec3 {
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])
	n := e1.Cross(e2)
	l := n.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return n.Mul(1 / l)
}

// Bounds is an axis-aligned bounding box.
// The zero value is empty; the first Extend sets both corners.
type Bounds struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	valid bool
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return !b.valid
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// ExtendTriangle grows the box to include all vertices of t.
func (b *Bounds) ExtendTriangle(t Triangle) {
	for _, v := range t.Vertices {
		b.Extend(v)
	}
}

// Center returns the midpoint of the box, or the origin when empty.
func (b Bounds) Center() mgl32.Vec3 {
	if !b.valid {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	if !b.valid {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b Bounds) String() string {
	if !b.valid {
		return "empty"
	}
	return fmt.Sprintf("[%g %g %g]..[%g %g %g]",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
