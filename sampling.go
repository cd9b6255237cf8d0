package twin

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is one mesh face sampled into world space.
type Triangle struct {
	// Node owns the mesh the face came from.
	Node *Node
	// Indices is the face's index triple into Node.Mesh.
	Indices [3]uint32
	// Vertices are the world-space corner positions.
	Vertices [3]r3.Vec
	// Normals are the corner normals rotated by the owning node's world
	// rotation (not its full matrix).
	Normals [3]r3.Vec
}

// AverageNormal returns the normalized mean of the three corner normals,
// or the zero vector when they cancel out.
func (t Triangle) AverageNormal() r3.Vec {
	return unitOrZero(r3.Add(r3.Add(t.Normals[0], t.Normals[1]), t.Normals[2]))
}

// Centroid returns the mean of the three corners.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(r3.Add(t.Vertices[0], t.Vertices[1]), t.Vertices[2]))
}

// WorldTriangles samples every triangle of every mesh under n into world
// space, in pre-order node order and index order within each mesh.
func WorldTriangles(n *Node) []Triangle {
	var out []Triangle
	n.Walk(func(c *Node) bool {
		if c.Mesh.IsEmpty() {
			return true
		}
		m := c.WorldMatrix()
		rot := c.WorldRotation()
		for i := 0; i < c.Mesh.TriangleCount(); i++ {
			tri := c.Mesh.Triangle(i)
			t := Triangle{Node: c, Indices: tri}
			for k := 0; k < 3; k++ {
				t.Vertices[k] = m.TransformPoint(c.Mesh.Positions[tri[k]])
				t.Normals[k] = RotateVec(rot, c.Mesh.normalAt(tri, k))
			}
			out = append(out, t)
		}
		return true
	})
	return out
}

// WorldVertices returns every mesh vertex under n in world space.
func WorldVertices(n *Node) []r3.Vec {
	var out []r3.Vec
	n.Walk(func(c *Node) bool {
		if c.Mesh.IsEmpty() {
			return true
		}
		m := c.WorldMatrix()
		for _, p := range c.Mesh.Positions {
			out = append(out, m.TransformPoint(p))
		}
		return true
	})
	return out
}
