// Package affine provides 3D affine maps for transforming mesh geometry.
package affine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Axis selects one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the lowercase axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

const (
	// orthoEpsilon is the tolerance used when deciding whether L is orthogonal.
	orthoEpsilon = 1e-5
	// unitEpsilon is how far from 1 a normal's length may be before it is
	// rescaled.
	unitEpsilon = 1e-6
)

// Map is an affine map p -> L*p + T.
// L is stored column-major (mgl32 layout).
type Map struct {
	L mgl32.Mat3
	T mgl32.Vec3
}

// Identity returns the identity map.
func Identity() Map {
	return Map{L: mgl32.Ident3()}
}

// Translation returns a map that adds d to every point.
func Translation(d mgl32.Vec3) Map {
	return Map{L: mgl32.Ident3(), T: d}
}

// Rotation returns a right-handed rotation about the given axis.
// angle is in radians.
func Rotation(axis Axis, angle float32) Map {
	var l mgl32.Mat3
	switch axis {
	case AxisX:
		l = mgl32.Rotate3DX(angle)
	case AxisY:
		l = mgl32.Rotate3DY(angle)
	default:
		l = mgl32.Rotate3DZ(angle)
	}
	return Map{L: l}
}

// Mirror returns a reflection that negates the given axis.
func Mirror(axis Axis) Map {
	d := mgl32.Vec3{1, 1, 1}
	d[axis] = -1
	return Map{L: mgl32.Diag3(d)}
}

// Scale returns a (possibly non-uniform) scale map.
func Scale(s mgl32.Vec3) Map {
	return Map{L: mgl32.Diag3(s)}
}

// Then returns the map that applies m first and next second,
// i.e. next ∘ m = (next.L*m.L, next.L*m.T + next.T).
func (m Map) Then(next Map) Map {
	return Map{
		L: next.L.Mul3(m.L),
		T: next.L.Mul3x1(m.T).Add(next.T),
	}
}

// Point transforms a position.
func (m Map) Point(p mgl32.Vec3) mgl32.Vec3 {
	return m.L.Mul3x1(p).Add(m.T)
}


// IsOrthogonal reports whether L^T*L is the identity within tolerance.
// Rotations and axis mirrors are orthogonal; mirrors are improper (det -1).
func (m Map) IsOrthogonal() bool {
	return matClose(m.L.Transpose().Mul3(m.L), mgl32.Ident3(), orthoEpsilon)
}

// NormalMatrix returns the matrix that maps surface normals under m.
//
// For orthogonal L the inverse-transpose equals L, so L is returned as is.
// Otherwise the inverse-transpose of L is used. A singular L yields the zero
// matrix, which collapses every normal to zero.
func (m Map) NormalMatrix() mgl32.Mat3 {
	if m.IsOrthogonal() {
		return m.L
	}
	return m.L.Inv().Transpose()
}

// ApproxEqual reports whether two maps agree within an absolute eps on every
// component.
func (m Map) ApproxEqual(other Map, eps float32) bool {
	return matClose(m.L, other.L, eps) && VecClose(m.T, other.T, eps)
}

// VecClose reports whether a and b differ by at most eps per component.
func VecClose(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func matClose(a, b mgl32.Mat3, eps float32) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// TransformNormal maps n by the normal matrix nm and renormalizes it.
// Results already of unit length are returned untouched, so an identity
// nm leaves unit normals bit-for-bit unchanged. A zero (or collapsed)
// normal is returned as the zero vector.
func TransformNormal(nm mgl32.Mat3, n mgl32.Vec3) mgl32.Vec3 {
	v := nm.Mul3x1(n)
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return mgl32.Vec3{}
	}
	if d := l - 1; d > -unitEpsilon && d < unitEpsilon {
		return v
	}
	return v.Mul(1 / l)
}
