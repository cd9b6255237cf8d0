package twin

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// PreciseBoundingBox returns the world-space AABB of every mesh-bearing node
// in the subtree rooted at n. Boxes are rebuilt from raw vertex positions
// pushed through each mesh's world matrix, so they stay tight after arbitrary
// rotation. A subtree without geometry yields a unit box centered on n's
// world position.
func PreciseBoundingBox(n *Node) r3.Box {
	var (
		box   r3.Box
		found bool
	)
	n.Walk(func(c *Node) bool {
		if c.Mesh.IsEmpty() {
			return true
		}
		m := c.WorldMatrix()
		for _, p := range c.Mesh.Positions {
			w := m.TransformPoint(p)
			if !found {
				box = r3.Box{Min: w, Max: w}
				found = true
				continue
			}
			box = expandBox(box, w)
		}
		return true
	})
	if !found {
		return unitBoxAt(n.WorldPosition())
	}
	return box
}

func unitBoxAt(c r3.Vec) r3.Box {
	h := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	return r3.Box{Min: r3.Sub(c, h), Max: r3.Add(c, h)}
}

// BoundsCache memoizes PreciseBoundingBox per node name for the lifetime of
// one service run. Node identity is not stable across scene reloads, so the
// owner must Clear it when it is disposed.
type BoundsCache struct {
	boxes map[string]r3.Box
}

// NewBoundsCache creates an empty cache.
func NewBoundsCache() *BoundsCache {
	return &BoundsCache{boxes: make(map[string]r3.Box)}
}

// Get returns the cached box for n, computing it on first use.
func (c *BoundsCache) Get(n *Node) r3.Box {
	if b, ok := c.boxes[n.Name]; ok {
		return b
	}
	b := PreciseBoundingBox(n)
	c.boxes[n.Name] = b
	return b
}

// Invalidate drops the entry for name.
func (c *BoundsCache) Invalidate(name string) {
	delete(c.boxes, name)
}

// Clear drops every entry.
func (c *BoundsCache) Clear() {
	clear(c.boxes)
}

// Len returns the number of cached boxes.
func (c *BoundsCache) Len() int {
	return len(c.boxes)
}
