package twin

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat4 is a 4x4 affine matrix stored in column-major order.
//
//	| m0  m4  m8  m12 |
//	| m1  m5  m9  m13 |
//	| m2  m6  m10 m14 |
//	| m3  m7  m11 m15 |
type Mat4 [16]float64

// identityMat4 is the identity matrix.
var identityMat4 = Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// IdentityMat4 returns the identity matrix.
func IdentityMat4() Mat4 {
	return identityMat4
}

// composeTRS builds Translate(p) * Rotate(q) * Scale(s).
func composeTRS(p r3.Vec, q quat.Number, s r3.Vec) Mat4 {
	q = normalizeQuat(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat4{
		(1 - 2*(yy+zz)) * s.X, 2 * (xy + wz) * s.X, 2 * (xz - wy) * s.X, 0,
		2 * (xy - wz) * s.Y, (1 - 2*(xx+zz)) * s.Y, 2 * (yz + wx) * s.Y, 0,
		2 * (xz + wy) * s.Z, 2 * (yz - wx) * s.Z, (1 - 2*(xx+yy)) * s.Z, 0,
		p.X, p.Y, p.Z, 1,
	}
}

// Mul returns m * b.
func (m Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ { // column of b
		for j := 0; j < 4; j++ { // row of m
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Inverse computes the inverse using cofactor expansion.
// Returns the identity matrix if m is singular (determinant ≈ 0).
func (m Mat4) Inverse() Mat4 {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det > -1e-15 && det < 1e-15 {
		return identityMat4
	}
	inv := 1.0 / det

	return Mat4{
		(m[5]*c5 - m[6]*c4 + m[7]*c3) * inv,
		(-m[1]*c5 + m[2]*c4 - m[3]*c3) * inv,
		(m[13]*s5 - m[14]*s4 + m[15]*s3) * inv,
		(-m[9]*s5 + m[10]*s4 - m[11]*s3) * inv,

		(-m[4]*c5 + m[6]*c2 - m[7]*c1) * inv,
		(m[0]*c5 - m[2]*c2 + m[3]*c1) * inv,
		(-m[12]*s5 + m[14]*s2 - m[15]*s1) * inv,
		(m[8]*s5 - m[10]*s2 + m[11]*s1) * inv,

		(m[4]*c4 - m[5]*c2 + m[7]*c0) * inv,
		(-m[0]*c4 + m[1]*c2 - m[3]*c0) * inv,
		(m[12]*s4 - m[13]*s2 + m[15]*s0) * inv,
		(-m[8]*s4 + m[9]*s2 - m[11]*s0) * inv,

		(-m[4]*c3 + m[5]*c1 - m[6]*c0) * inv,
		(m[0]*c3 - m[1]*c1 + m[2]*c0) * inv,
		(-m[12]*s3 + m[13]*s1 - m[14]*s0) * inv,
		(m[8]*s3 - m[9]*s1 + m[10]*s0) * inv,
	}
}

// TransformPoint applies the full affine transform to p.
func (m Mat4) TransformPoint(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformVector applies the linear part of the transform (no translation).
func (m Mat4) TransformVector(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() r3.Vec {
	return r3.Vec{X: m[12], Y: m[13], Z: m[14]}
}

// --- Quaternion helpers ---

// AxisAngle returns the unit quaternion rotating by angle radians about axis.
// A zero axis yields the identity rotation.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	if r3.Norm(axis) < 1e-12 || angle == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Number(r3.NewRotation(angle, r3.Unit(axis)))
}

// RotateVec rotates v by the unit quaternion q.
func RotateVec(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(normalizeQuat(q)).Rotate(v)
}

// normalizeQuat returns q scaled to unit length; the zero quaternion maps to
// the identity.
func normalizeQuat(q quat.Number) quat.Number {
	l := quat.Abs(q)
	if l < 1e-12 {
		return quat.Number{Real: 1}
	}
	if math.Abs(l-1) < 1e-12 {
		return q
	}
	return quat.Scale(1/l, q)
}

// Slerp interpolates between unit quaternions a and b along the shortest arc.
func Slerp(a, b quat.Number, t float64) quat.Number {
	a, b = normalizeQuat(a), normalizeQuat(b)
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	if dot > 0.9995 {
		// Nearly parallel: fall back to normalized lerp.
		return normalizeQuat(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// --- World transform ---

// refreshWorld recomputes the cached world transform if dirty. Dirty flags
// propagate down the subtree on every local mutation, so a clean node always
// has a clean, current parent chain.
func (n *Node) refreshWorld() {
	if !n.transformDirty {
		return
	}
	local := composeTRS(n.Position, n.Rotation, n.Scale)
	if n.Parent != nil {
		n.Parent.refreshWorld()
		n.worldMatrix = n.Parent.worldMatrix.Mul(local)
		n.worldRotation = normalizeQuat(quat.Mul(n.Parent.worldRotation, normalizeQuat(n.Rotation)))
	} else {
		n.worldMatrix = local
		n.worldRotation = normalizeQuat(n.Rotation)
	}
	n.transformDirty = false
}

// WorldMatrix returns the node's local-to-world matrix.
func (n *Node) WorldMatrix() Mat4 {
	n.refreshWorld()
	return n.worldMatrix
}

// WorldRotation returns the accumulated rotation of the node, ignoring scale.
// Directions such as face normals are carried into world space with it so
// non-uniform scale cannot skew them.
func (n *Node) WorldRotation() quat.Number {
	n.refreshWorld()
	return n.worldRotation
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() r3.Vec {
	return n.WorldMatrix().Translation()
}

// ParentWorldMatrix returns the parent's world matrix, or identity for a root.
func (n *Node) ParentWorldMatrix() Mat4 {
	if n.Parent == nil {
		return identityMat4
	}
	return n.Parent.WorldMatrix()
}

// WorldToParent converts a world-space point into the node's parent frame,
// the frame its Position is expressed in.
func (n *Node) WorldToParent(p r3.Vec) r3.Vec {
	return n.ParentWorldMatrix().Inverse().TransformPoint(p)
}

// WorldDirToParent converts a world-space direction into the parent frame.
func (n *Node) WorldDirToParent(v r3.Vec) r3.Vec {
	return n.ParentWorldMatrix().Inverse().TransformVector(v)
}

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(p r3.Vec) r3.Vec {
	return n.WorldMatrix().Inverse().TransformPoint(p)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(p r3.Vec) r3.Vec {
	return n.WorldMatrix().TransformPoint(p)
}

// --- Transform property setters ---

// SetPosition sets the node's local position and marks it dirty.
func (n *Node) SetPosition(p r3.Vec) {
	n.Position = p
	markSubtreeDirty(n)
}

// Translate offsets the node's local position.
func (n *Node) Translate(delta r3.Vec) {
	n.SetPosition(r3.Add(n.Position, delta))
}

// SetRotation sets the node's local rotation and marks it dirty.
func (n *Node) SetRotation(q quat.Number) {
	n.Rotation = normalizeQuat(q)
	markSubtreeDirty(n)
}

// SetScale sets the node's local scale and marks it dirty.
func (n *Node) SetScale(s r3.Vec) {
	n.Scale = s
	markSubtreeDirty(n)
}

// SetAlpha sets the node's opacity.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
}

// MarkDirty marks the node's transform as dirty, forcing recomputation on
// next access. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	markSubtreeDirty(n)
}
