package twin

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxMeshCounts(t *testing.T) {
	m := BoxMesh(r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3})
	if m.VertexCount() != 24 {
		t.Errorf("VertexCount = %d, want 24", m.VertexCount())
	}
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount = %d, want 12", m.TriangleCount())
	}
	b := m.LocalBounds()
	assertVec(t, "min", b.Min, r3.Vec{})
	assertVec(t, "max", b.Max, r3.Vec{X: 1, Y: 2, Z: 3})
}

// windingNormals returns the geometric normal of every triangle, as used for
// meshes without stored normals.
func windingNormals(m *Mesh) []r3.Vec {
	bare := &Mesh{Positions: m.Positions, Indices: m.Indices}
	out := make([]r3.Vec, m.TriangleCount())
	for i := range out {
		out[i] = bare.normalAt(bare.Triangle(i), 0)
	}
	return out
}

func TestBoxMeshWindingMatchesNormals(t *testing.T) {
	for name, m := range map[string]*Mesh{
		"box":    BoxMesh(r3.Vec{X: -1}, r3.Vec{X: 1, Y: 1, Z: 1}),
		"cavity": CavityMesh(r3.Vec{X: -1}, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{Z: 1}),
	} {
		geo := windingNormals(m)
		for i, g := range geo {
			stored := m.normalAt(m.Triangle(i), 0)
			assertVec(t, name+" normal", g, stored)
		}
	}
}

func TestBoxMeshNormalsPointOutward(t *testing.T) {
	m := BoxMesh(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1})
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		c := r3.Scale(1./3., r3.Add(r3.Add(m.Positions[tri[0]], m.Positions[tri[1]]), m.Positions[tri[2]]))
		if r3.Dot(c, m.normalAt(tri, 0)) <= 0 {
			t.Errorf("triangle %d normal points inward", i)
		}
	}
}

func TestCavityMeshOpenFace(t *testing.T) {
	m := CavityMesh(r3.Vec{X: -1, Y: -1}, r3.Vec{X: 1, Y: 1, Z: 2}, r3.Vec{Z: 1})
	if m.TriangleCount() != 10 {
		t.Fatalf("TriangleCount = %d, want 10", m.TriangleCount())
	}
	center := r3.Vec{Z: 1}
	floor := 0
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		n := m.normalAt(tri, 0)
		if r3.Dot(r3.Sub(center, m.Positions[tri[0]]), n) <= 0 {
			t.Errorf("triangle %d normal points outward", i)
		}
		if n.Z > 0.5 {
			floor++
		}
		if n.Z < -0.5 {
			t.Errorf("triangle %d belongs to the open face", i)
		}
	}
	if floor != 2 {
		t.Errorf("floor triangles = %d, want 2", floor)
	}
}

func TestCylinderMesh(t *testing.T) {
	m := CylinderMesh(0.5, 2, 8)
	if m.TriangleCount() != 32 {
		t.Errorf("TriangleCount = %d, want 32", m.TriangleCount())
	}
	b := m.LocalBounds()
	assertVec(t, "min", b.Min, r3.Vec{X: -0.5, Y: -1, Z: -0.5})
	assertVec(t, "max", b.Max, r3.Vec{X: 0.5, Y: 1, Z: 0.5})

	if CylinderMesh(1, 1, 1).TriangleCount() != 12 {
		t.Error("segments should clamp to 3")
	}
}

func TestMeshEmpty(t *testing.T) {
	var nilMesh *Mesh
	if !nilMesh.IsEmpty() {
		t.Error("nil mesh should be empty")
	}
	if !(&Mesh{Positions: []r3.Vec{{}}}).IsEmpty() {
		t.Error("mesh without indices should be empty")
	}
	if (&Mesh{}).LocalBounds() != (r3.Box{}) {
		t.Error("empty bounds should be zero")
	}
}

func TestMeshAppend(t *testing.T) {
	m := BoxMesh(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	other := &Mesh{
		Positions: []r3.Vec{{X: 5}, {X: 6}, {X: 5, Y: 1}},
		Indices:   []uint32{0, 1, 2},
	}
	m.Append(other)

	if m.VertexCount() != 27 || m.TriangleCount() != 13 {
		t.Fatalf("counts = %d/%d, want 27/13", m.VertexCount(), m.TriangleCount())
	}
	tri := m.Triangle(12)
	if tri != [3]uint32{24, 25, 26} {
		t.Errorf("appended triangle = %v", tri)
	}
	assertVec(t, "synthesized normal", m.Normals[24], r3.Vec{Z: 1})
}

func TestWorldTrianglesRotateNormals(t *testing.T) {
	box := NewBox("box", r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1})
	box.SetPosition(r3.Vec{Y: 10})
	box.SetScale(r3.Vec{X: 2, Y: 1, Z: 1})
	box.SetRotation(AxisAngle(r3.Vec{Y: 1}, math.Pi/2))

	tris := WorldTriangles(box)
	if len(tris) != 12 {
		t.Fatalf("triangles = %d, want 12", len(tris))
	}
	// the local +X face (scaled to x=2) ends up facing world -Z at z=-2
	found := 0
	for _, tr := range tris {
		n := tr.AverageNormal()
		if n.Z < -0.99 {
			found++
			assertNear(t, "face depth", tr.Centroid().Z, -2)
			if tr.Node != box {
				t.Error("triangle should reference its node")
			}
		}
	}
	if found != 2 {
		t.Errorf("faces toward -Z = %d, want 2", found)
	}
}

func TestWorldVertices(t *testing.T) {
	root := NewContainer("root")
	root.SetPosition(r3.Vec{X: 1})
	root.AddChild(NewBox("a", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))
	root.AddChild(NewContainer("empty"))

	verts := WorldVertices(root)
	if len(verts) != 24 {
		t.Fatalf("vertices = %d, want 24", len(verts))
	}
	for _, v := range verts {
		if v.X < 1-epsilon || v.X > 2+epsilon {
			t.Errorf("vertex %v outside translated box", v)
		}
	}
}

func TestPreciseBoundingBoxRotated(t *testing.T) {
	root := NewContainer("root")
	box := NewBox("slab", r3.Vec{X: -1, Y: -0.5, Z: -0.1}, r3.Vec{X: 1, Y: 0.5, Z: 0.1})
	box.SetRotation(AxisAngle(r3.Vec{Y: 1}, math.Pi/2))
	root.AddChild(box)

	b := PreciseBoundingBox(root)
	assertVec(t, "min", b.Min, r3.Vec{X: -0.1, Y: -0.5, Z: -1})
	assertVec(t, "max", b.Max, r3.Vec{X: 0.1, Y: 0.5, Z: 1})

	again := PreciseBoundingBox(root)
	if again != b {
		t.Error("bounding box should be idempotent")
	}
}

func TestPreciseBoundingBoxNoGeometry(t *testing.T) {
	n := NewContainer("marker")
	n.SetPosition(r3.Vec{X: 3, Y: 2, Z: 1})
	b := PreciseBoundingBox(n)
	assertVec(t, "center", BoxCenter(b), r3.Vec{X: 3, Y: 2, Z: 1})
	assertVec(t, "size", r3.Sub(b.Max, b.Min), r3.Vec{X: 1, Y: 1, Z: 1})
}

func TestBoundsCache(t *testing.T) {
	box := NewBox("housing", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	c := NewBoundsCache()

	first := c.Get(box)
	box.SetPosition(r3.Vec{X: 10})
	if c.Get(box) != first {
		t.Error("cached box should not change until invalidated")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Invalidate("housing")
	assertNear(t, "moved min", c.Get(box).Min.X, 10)

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}
