package mating

import (
	"math"
	"testing"

	"github.com/phanxgames/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"pgregory.net/rapid"
)

// tiltedBoxes returns a container with an axis-aligned box and a box rotated
// by angle about X, so some faces are slightly off the Z axis.
func tiltedBoxes(angle float64) *twin.Node {
	root := twin.NewContainer("root")
	root.AddChild(twin.NewBox("straight", r3.Vec{X: -0.1, Y: -0.1, Z: -0.1}, r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}))
	tilted := twin.NewBox("tilted", r3.Vec{X: -0.1, Y: -0.1, Z: -0.1}, r3.Vec{X: 0.1, Y: 0.1, Z: 0.1})
	tilted.SetPosition(r3.Vec{X: 1})
	tilted.SetRotation(twin.AxisAngle(r3.Vec{X: 1}, angle))
	root.AddChild(tilted)
	return root
}

func TestSelectFacesAxisModeBothSides(t *testing.T) {
	box := twin.NewBox("box", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	sel := SelectFaces(box, r3.Vec{Z: 1}, SelectOptions{})

	// +Z and -Z faces, two triangles each
	require.Equal(t, 4, sel.Len())
	for _, f := range sel.Highlight {
		assert.InDelta(t, 1, math.Abs(f.Normal.Z), 1e-12)
	}
	assert.Empty(t, sel.Fill)
	assert.Len(t, sel.IndexTriples(), 4)
	assert.Len(t, sel.Samples(), 12)
}

func TestSelectFacesZeroToleranceIsExact(t *testing.T) {
	root := tiltedBoxes(0.01)
	sel := SelectFaces(root, r3.Vec{Z: 1}, SelectOptions{Tolerance: Tolerance(0)})

	require.Equal(t, 4, sel.Len())
	for _, f := range sel.Highlight {
		assert.Equal(t, "straight", f.Node.Name)
		assert.InDelta(t, 1, math.Abs(r3.Dot(f.Normal, r3.Vec{Z: 1})), 1e-9)
	}

	loose := SelectFaces(root, r3.Vec{Z: 1}, SelectOptions{Tolerance: Tolerance(0.01)})
	assert.Equal(t, 8, loose.Len())
}

func TestSelectFacesUsesWorldRotation(t *testing.T) {
	box := twin.NewBox("box", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	box.SetScale(r3.Vec{X: 3, Y: 1, Z: 0.2})
	box.SetRotation(twin.AxisAngle(r3.Vec{Y: 1}, math.Pi/2))

	sel := SelectFaces(box, r3.Vec{X: 1}, SelectOptions{Tolerance: Tolerance(1e-6)})
	require.Equal(t, 4, sel.Len())
	for _, f := range sel.Highlight {
		assert.InDelta(t, 1, math.Abs(f.Normal.X), 1e-9)
	}
}

func TestSelectFacesMonotonicInTolerance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root := tiltedBoxes(rapid.Float64Range(-1, 1).Draw(rt, "angle"))
		dir := r3.Vec{
			X: rapid.Float64Range(-1, 1).Draw(rt, "x"),
			Y: rapid.Float64Range(-1, 1).Draw(rt, "y"),
			Z: rapid.Float64Range(0.1, 1).Draw(rt, "z"),
		}
		lo := rapid.Float64Range(0, 0.98).Draw(rt, "lo")
		hi := rapid.Float64Range(lo, 0.99).Draw(rt, "hi")

		small := SelectFaces(root, dir, SelectOptions{Tolerance: &lo})
		large := SelectFaces(root, dir, SelectOptions{Tolerance: &hi})

		picked := make(map[[2]any]bool)
		for _, f := range large.Highlight {
			picked[[2]any{f.Node.ID, f.Indices}] = true
		}
		for _, f := range small.Highlight {
			if !picked[[2]any{f.Node.ID, f.Indices}] {
				rt.Fatalf("face %v of %s lost when tolerance grew %v -> %v", f.Indices, f.Node.Name, lo, hi)
			}
		}
	})
}

func TestSelectFacesViewerMode(t *testing.T) {
	box := twin.NewBox("box", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	view := r3.Vec{Z: -1}
	sel := SelectFaces(box, r3.Vec{}, SelectOptions{ViewDirection: &view})

	// only the +Z face looks back at a viewer looking down -Z
	require.Equal(t, 2, sel.Len())
	for _, f := range sel.Highlight {
		assert.InDelta(t, 1, f.Normal.Z, 1e-12)
	}
	assert.Len(t, sel.Fill, 10)
}

func TestSelectFacesEmpty(t *testing.T) {
	assert.Zero(t, SelectFaces(nil, r3.Vec{Z: 1}, SelectOptions{}).Len())
	assert.Zero(t, SelectFaces(twin.NewContainer("empty"), r3.Vec{Z: 1}, SelectOptions{}).Len())
	assert.Zero(t, SelectFaces(twin.NewBox("b", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}), r3.Vec{}, SelectOptions{}).Len())
}
