package twin

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// --- Box ---

// boxFace describes one quad of an axis-aligned box: its outward normal and
// the two in-plane axes that span it.
type boxFace struct {
	normal r3.Vec
	u, v   r3.Vec
}

var boxFaces = [6]boxFace{
	{normal: r3.Vec{X: 1}, u: r3.Vec{Y: 1}, v: r3.Vec{Z: 1}},
	{normal: r3.Vec{X: -1}, u: r3.Vec{Z: 1}, v: r3.Vec{Y: 1}},
	{normal: r3.Vec{Y: 1}, u: r3.Vec{Z: 1}, v: r3.Vec{X: 1}},
	{normal: r3.Vec{Y: -1}, u: r3.Vec{X: 1}, v: r3.Vec{Z: 1}},
	{normal: r3.Vec{Z: 1}, u: r3.Vec{X: 1}, v: r3.Vec{Y: 1}},
	{normal: r3.Vec{Z: -1}, u: r3.Vec{Y: 1}, v: r3.Vec{X: 1}},
}

// BoxMesh generates a closed axis-aligned box between min and max with flat,
// outward-facing normals (24 vertices, 12 triangles).
func BoxMesh(min, max r3.Vec) *Mesh {
	return boxMesh(min, max, false)
}

// CavityMesh generates an open-topped box whose walls and floor face inward,
// the shape of a pocket or socket cut into a housing. open selects the
// missing face by its outward normal (for example {Z: 1}).
func CavityMesh(min, max, open r3.Vec) *Mesh {
	m := &Mesh{}
	full := boxMesh(min, max, true)
	for f := 0; f < 6; f++ {
		if r3.Dot(boxFaces[f].normal, open) > 0.5 {
			continue
		}
		base := uint32(len(m.Positions))
		m.Positions = append(m.Positions, full.Positions[f*4:f*4+4]...)
		m.Normals = append(m.Normals, full.Normals[f*4:f*4+4]...)
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

func boxMesh(min, max r3.Vec, inward bool) *Mesh {
	center := r3.Scale(0.5, r3.Add(min, max))
	half := r3.Scale(0.5, r3.Sub(max, min))
	m := &Mesh{
		Positions: make([]r3.Vec, 0, 24),
		Normals:   make([]r3.Vec, 0, 24),
		Indices:   make([]uint32, 0, 36),
	}
	for _, f := range boxFaces {
		n := f.normal
		u, v := f.u, f.v
		if inward {
			n = r3.Scale(-1, n)
			u, v = v, u
		}
		faceCenter := r3.Add(center, mulElem(f.normal, half))
		hu := mulElem(u, half)
		hv := mulElem(v, half)
		base := uint32(len(m.Positions))
		m.Positions = append(m.Positions,
			r3.Sub(r3.Sub(faceCenter, hu), hv),
			r3.Sub(r3.Add(faceCenter, hu), hv),
			r3.Add(r3.Add(faceCenter, hu), hv),
			r3.Add(r3.Sub(faceCenter, hu), hv),
		)
		m.Normals = append(m.Normals, n, n, n, n)
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// NewBox creates a mesh node holding BoxMesh(min, max).
func NewBox(name string, min, max r3.Vec) *Node {
	return NewMesh(name, BoxMesh(min, max))
}

// --- Cylinder ---

// CylinderMesh generates a capped cylinder around the local Y axis, centered
// on the origin. Side normals are radial; cap normals are ±Y.
func CylinderMesh(radius, height float64, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	m := &Mesh{}
	h := height / 2
	// Sides: two rings sharing radial normals.
	for i := 0; i <= segments; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(segments))
		n := r3.Vec{X: cos, Z: sin}
		m.Positions = append(m.Positions,
			r3.Vec{X: radius * cos, Y: -h, Z: radius * sin},
			r3.Vec{X: radius * cos, Y: h, Z: radius * sin},
		)
		m.Normals = append(m.Normals, n, n)
	}
	for i := 0; i < segments; i++ {
		a := uint32(i * 2)
		m.Indices = append(m.Indices, a, a+1, a+3, a, a+3, a+2)
	}
	// Caps as triangle fans.
	for _, y := range [2]float64{h, -h} {
		n := r3.Vec{Y: 1}
		if y < 0 {
			n.Y = -1
		}
		center := uint32(len(m.Positions))
		m.Positions = append(m.Positions, r3.Vec{Y: y})
		m.Normals = append(m.Normals, n)
		for i := 0; i < segments; i++ {
			sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(segments))
			m.Positions = append(m.Positions, r3.Vec{X: radius * cos, Y: y, Z: radius * sin})
			m.Normals = append(m.Normals, n)
		}
		for i := 0; i < segments; i++ {
			a := center + 1 + uint32(i)
			b := center + 1 + uint32((i+1)%segments)
			if y > 0 {
				m.Indices = append(m.Indices, center, b, a)
			} else {
				m.Indices = append(m.Indices, center, a, b)
			}
		}
	}
	return m
}

func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
