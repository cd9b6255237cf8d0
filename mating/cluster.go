package mating

import (
	"github.com/phanxgames/twin"
	"gonum.org/v1/gonum/spatial/r3"
)

// probeMembers is how many leading members form a cluster's probe box. The
// probe center stops moving once a cluster has this many members, which
// keeps late outliers from dragging it.
const probeMembers = 9

// axisEpsilon is the cross-product magnitude below which the rotation axis
// falls back to the world right vector.
const axisEpsilon = 1e-6

// Sample is one selected vertex and the normal of the face it came from.
type Sample struct {
	Position r3.Vec
	Normal   r3.Vec
}

// Cluster is a detected plug (protrusion) or hole (cavity) feature.
// Clusters are computed fresh on every detection call and never persisted.
type Cluster struct {
	// Position is the bounding-box center of all member points.
	Position r3.Vec
	// RotationAxis is unit(mean normal × world up), or × world right when
	// the mean normal is parallel to up.
	RotationAxis r3.Vec
	// InsertionDirection is the unit mean face normal.
	InsertionDirection r3.Vec
	// MemberCount is the number of member vertices, a confidence weight.
	MemberCount int
	// Bounds is the box of all member points.
	Bounds r3.Box
}

// clusterBuilder accumulates members during the greedy pass.
type clusterBuilder struct {
	probe     r3.Box
	bounds    r3.Box
	ref       r3.Vec
	normalSum r3.Vec
	count     int
}

// newClusterBuilder starts a cluster at s. Member normals are flipped into
// the hemisphere of ref, or of the first member's normal when ref is zero,
// so opposite faces of a closed feature do not cancel.
func newClusterBuilder(s Sample, ref r3.Vec) *clusterBuilder {
	if ref == (r3.Vec{}) {
		ref = s.Normal
	}
	b := r3.Box{Min: s.Position, Max: s.Position}
	c := &clusterBuilder{probe: b, bounds: b, ref: ref}
	c.normalSum = c.orient(s.Normal)
	c.count = 1
	return c
}

func (c *clusterBuilder) orient(n r3.Vec) r3.Vec {
	if r3.Dot(n, c.ref) < 0 {
		return r3.Scale(-1, n)
	}
	return n
}

func (c *clusterBuilder) add(s Sample) {
	if c.count < probeMembers {
		c.probe = growBox(c.probe, s.Position)
	}
	c.bounds = growBox(c.bounds, s.Position)
	c.normalSum = r3.Add(c.normalSum, c.orient(s.Normal))
	c.count++
}

func (c *clusterBuilder) build() Cluster {
	mean := unit(c.normalSum)
	if mean == (r3.Vec{}) {
		mean = unit(c.ref)
	}
	return Cluster{
		Position:           twin.BoxCenter(c.bounds),
		RotationAxis:       rotationAxis(mean),
		InsertionDirection: mean,
		MemberCount:        c.count,
		Bounds:             c.bounds,
	}
}

// ClusterPoints groups samples into clusters with a greedy single pass.
//
// Samples are visited in order; each joins the first existing cluster whose
// probe center (the box center of its first nine members) lies within
// threshold, or starts a new cluster. The pass is not globally optimal but is
// deterministic for a fixed input order. Member normals are oriented to each
// cluster's first normal; use ClusterPointsAlong to orient them to a search
// direction instead.
func ClusterPoints(samples []Sample, threshold float64) []Cluster {
	return ClusterPointsAlong(samples, threshold, r3.Vec{})
}

// ClusterPointsAlong is ClusterPoints with every member normal flipped into
// the hemisphere of dir before averaging. Axis-mode selection picks faces on
// both sides of dir; without the flip a closed feature averages to zero.
func ClusterPointsAlong(samples []Sample, threshold float64, dir r3.Vec) []Cluster {
	var builders []*clusterBuilder
	for _, s := range samples {
		joined := false
		for _, b := range builders {
			if r3.Norm(r3.Sub(s.Position, twin.BoxCenter(b.probe))) <= threshold {
				b.add(s)
				joined = true
				break
			}
		}
		if !joined {
			builders = append(builders, newClusterBuilder(s, dir))
		}
	}
	out := make([]Cluster, len(builders))
	for i, b := range builders {
		out[i] = b.build()
	}
	return out
}

// rotationAxis derives a unit axis perpendicular to the mean normal.
func rotationAxis(mean r3.Vec) r3.Vec {
	axis := r3.Cross(mean, twin.WorldUp)
	if r3.Norm(axis) < axisEpsilon {
		axis = r3.Cross(mean, twin.WorldRight)
	}
	return unit(axis)
}

func growBox(b r3.Box, p r3.Vec) r3.Box {
	b.Min = r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	return b
}
