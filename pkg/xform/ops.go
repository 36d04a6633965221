// Package xform parses, compiles and applies ordered affine transform
// operations to a stream of mesh triangles.
package xform

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stlxform/pkg/affine"
)

// OpKind tags the variant of an Op.
type OpKind int

const (
	OpTranslate OpKind = iota
	OpRotateX
	OpRotateY
	OpRotateZ
	OpMirrorX
	OpMirrorY
	OpMirrorZ
	OpCenter // move the bounding-box center of the mesh-so-far to the origin
)

// String returns a human-readable op kind name.
func (k OpKind) String() string {
	switch k {
	case OpTranslate:
		return "Translate"
	case OpRotateX:
		return "RotateX"
	case OpRotateY:
		return "RotateY"
	case OpRotateZ:
		return "RotateZ"
	case OpMirrorX:
		return "MirrorX"
	case OpMirrorY:
		return "MirrorY"
	case OpMirrorZ:
		return "MirrorZ"
	case OpCenter:
		return "Center"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Op is one parsed transform operation.
type Op struct {
	Kind  OpKind
	Delta mgl32.Vec3 // Translate
	Angle float32    // RotateX/Y/Z, radians
	Index int        // position of the flag in the argument stream
}

// Translate returns a translation op.
func Translate(dx, dy, dz float32) Op {
	return Op{Kind: OpTranslate, Delta: mgl32.Vec3{dx, dy, dz}}
}

// RotateX returns a rotation about X by theta radians.
func RotateX(theta float32) Op { return Op{Kind: OpRotateX, Angle: theta} }

// RotateY returns a rotation about Y by theta radians.
func RotateY(theta float32) Op { return Op{Kind: OpRotateY, Angle: theta} }

// RotateZ returns a rotation about Z by theta radians.
func RotateZ(theta float32) Op { return Op{Kind: OpRotateZ, Angle: theta} }

// MirrorX negates X.
func MirrorX() Op { return Op{Kind: OpMirrorX} }

// MirrorY negates Y.
func MirrorY() Op { return Op{Kind: OpMirrorY} }

// MirrorZ negates Z.
func MirrorZ() Op { return Op{Kind: OpMirrorZ} }

// Center moves the bounding-box center to the origin.
func Center() Op { return Op{Kind: OpCenter} }

// Map returns the elementary affine map of the op.
// Center has no intrinsic map and yields the identity until resolved.
func (o Op) Map() affine.Map {
	switch o.Kind {
	case OpTranslate:
		return affine.Translation(o.Delta)
	case OpRotateX:
		return affine.Rotation(affine.AxisX, o.Angle)
	case OpRotateY:
		return affine.Rotation(affine.AxisY, o.Angle)
	case OpRotateZ:
		return affine.Rotation(affine.AxisZ, o.Angle)
	case OpMirrorX:
		return affine.Mirror(affine.AxisX)
	case OpMirrorY:
		return affine.Mirror(affine.AxisY)
	case OpMirrorZ:
		return affine.Mirror(affine.AxisZ)
	default:
		return affine.Identity()
	}
}

// String formats the op the way it would be written on the command line.
func (o Op) String() string {
	switch o.Kind {
	case OpTranslate:
		return fmt.Sprintf("Translate(%g,%g,%g)", o.Delta[0], o.Delta[1], o.Delta[2])
	case OpRotateX, OpRotateY, OpRotateZ:
		return fmt.Sprintf("%s(%g)", o.Kind, o.Angle)
	default:
		return o.Kind.String()
	}
}

// OperationList is an ordered sequence of ops; order is application order.
type OperationList []Op

// NeedsBounds reports whether any op depends on the mesh extent.
func (l OperationList) NeedsBounds() bool {
	for _, o := range l {
		if o.Kind == OpCenter {
			return true
		}
	}
	return false
}

// DegreesToRadians returns a copy of l with rotation angles, read as
// degrees, converted to radians. Other ops are unchanged.
func (l OperationList) DegreesToRadians() OperationList {
	out := make(OperationList, len(l))
	for i, o := range l {
		switch o.Kind {
		case OpRotateX, OpRotateY, OpRotateZ:
			o.Angle = mgl32.DegToRad(o.Angle)
		}
		out[i] = o
	}
	return out
}

// String joins the ops with " -> ".
func (l OperationList) String() string {
	if len(l) == 0 {
		return "Identity"
	}
	parts := make([]string, len(l))
	for i, o := range l {
		parts[i] = o.String()
	}
	return strings.Join(parts, " -> ")
}
