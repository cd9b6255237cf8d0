package twin

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh in the owning node's local space.
// Positions and Normals are per-vertex and parallel; Indices holds three
// entries per triangle. Meshes are treated as immutable while they are being
// analysed.
type Mesh struct {
	Positions []r3.Vec
	Normals   []r3.Vec
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Positions) == 0 || len(m.Indices) < 3
}

// Triangle returns the index triple of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[i*3], m.Indices[i*3+1], m.Indices[i*3+2]}
}

// LocalBounds scans the positions and returns the local-space AABB.
func (m *Mesh) LocalBounds() r3.Box {
	if len(m.Positions) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		b = expandBox(b, p)
	}
	return b
}

// normalAt returns the vertex normal, or the geometric face normal of the
// triangle when the mesh carries no normals.
func (m *Mesh) normalAt(tri [3]uint32, corner int) r3.Vec {
	if len(m.Normals) == len(m.Positions) {
		return m.Normals[tri[corner]]
	}
	a, b, c := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
	return unitOrZero(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// Append copies other's triangles onto m, offsetting indices.
func (m *Mesh) Append(other *Mesh) {
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.normalsOrFace()...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}
}

// normalsOrFace returns Normals, synthesizing flat normals if absent.
func (m *Mesh) normalsOrFace() []r3.Vec {
	if len(m.Normals) == len(m.Positions) {
		return m.Normals
	}
	out := make([]r3.Vec, len(m.Positions))
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		n := m.normalAt(tri, 0)
		out[tri[0]], out[tri[1]], out[tri[2]] = n, n, n
	}
	return out
}

func expandBox(b r3.Box, p r3.Vec) r3.Box {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.Z < b.Min.Z {
		b.Min.Z = p.Z
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	if p.Z > b.Max.Z {
		b.Max.Z = p.Z
	}
	return b
}

// BoxCenter returns the midpoint of b.
func BoxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// boxCorners returns the eight corners of b.
func boxCorners(b r3.Box) [8]r3.Vec {
	return [8]r3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

func unitOrZero(v r3.Vec) r3.Vec {
	if r3.Norm(v) < 1e-12 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}
