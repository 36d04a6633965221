package xform

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stlxform/pkg/affine"
	"github.com/Faultbox/stlxform/pkg/mesh"
)

// Transform is a compiled operation list: the position map and the matrix
// derived from it for normals. It is immutable and safe to share.
type Transform struct {
	Position affine.Map
	Normal   mgl32.Mat3
}

// Compile folds ops into one Transform. Each op is applied to the point as
// already transformed by the ops before it (acc = op ∘ acc).
func Compile(ops OperationList) Transform {
	acc := affine.Identity()
	for _, op := range ops {
		acc = acc.Then(op.Map())
	}
	return FromMap(acc)
}

// FromMap wraps an affine map, deriving its normal matrix.
func FromMap(m affine.Map) Transform {
	return Transform{Position: m, Normal: m.NormalMatrix()}
}

// Apply transforms the vertices and normal of t.
// Translation never reaches the normal, and the normal is re-normalized.
func (tr Transform) Apply(t mesh.Triangle) mesh.Triangle {
	out := mesh.Triangle{
		Normal: affine.TransformNormal(tr.Normal, t.Normal),
		Attr:   t.Attr,
	}
	for i, v := range t.Vertices {
		out.Vertices[i] = tr.Position.Point(v)
	}
	return out
}
