package twin

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// nodeIDCounter is a plain counter (no atomic — the scene is mutated from the
// tick goroutine only).
var nodeIDCounter uint32

func nextNodeID() NodeID {
	nodeIDCounter++
	return NodeID(nodeIDCounter)
}

// Node is the fundamental scene graph element: a named transform with owned
// children and an optional triangle mesh. A single flat struct is used for
// groups and meshes alike.
type Node struct {
	// Identity
	ID   NodeID
	Name string
	Type NodeType

	// Hierarchy. Parent is a back reference; the node does not own it.
	Parent   *Node
	children []*Node

	// Transform (local)
	Position r3.Vec
	Rotation quat.Number
	Scale    r3.Vec

	// Computed lazily by WorldMatrix / WorldRotation.
	worldMatrix    Mat4
	worldRotation  quat.Number
	transformDirty bool

	// Visibility
	Alpha   float64
	Visible bool
	Color   Color

	// Geometry (NodeTypeMesh)
	Mesh *Mesh

	// Metadata carries numeric per-part properties handed over by the loader
	// (screw pitch, rotation axis components and similar).
	Metadata map[string]float64
	UserData any

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Rotation = quat.Number{Real: 1}
	n.Scale = r3.Vec{X: 1, Y: 1, Z: 1}
	n.Alpha = 1
	n.Color = ColorWhite
	n.Visible = true
	n.transformDirty = true
}

// NewContainer creates a group node with no geometry.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	return n
}

// NewMesh creates a node that owns the given local-space triangle mesh.
func NewMesh(name string, mesh *Mesh) *Node {
	n := &Node{Name: name, Type: NodeTypeMesh, Mesh: mesh}
	nodeDefaults(n)
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil, either node is disposed, or child is an ancestor
// of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("twin: cannot add nil child")
	}
	checkDisposed(n, "AddChild (parent)")
	checkDisposed(child, "AddChild (child)")
	if isAncestor(child, n) {
		panic("twin: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
}

// Reparent moves n under newParent while keeping its world transform, the
// usual way of attaching a part to a moving body without a visible jump.
func (n *Node) Reparent(newParent *Node) {
	world := n.WorldMatrix()
	worldRot := n.WorldRotation()
	newParent.AddChild(n)
	inv := newParent.WorldMatrix().Inverse()
	local := inv.Mul(world)
	n.Position = local.Translation()
	n.Rotation = quat.Mul(quat.Conj(newParent.WorldRotation()), worldRot)
	markSubtreeDirty(n)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("twin: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Walk visits n and all descendants in pre-order. Returning false from fn
// skips the visited node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children {
		child.Walk(fn)
	}
}

// FindNodeByName returns the first node named name in a pre-order walk of
// root, or nil.
func FindNodeByName(root *Node, name string) *Node {
	if root == nil {
		return nil
	}
	var found *Node
	root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindNodeByID returns the node with the given handle under root, or nil.
func FindNodeByID(root *Node, id NodeID) *Node {
	if root == nil || id == 0 {
		return nil
	}
	var found *Node
	root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// MetaValue returns a metadata value and whether it was set.
func (n *Node) MetaValue(key string) (float64, bool) {
	if n.Metadata == nil {
		return 0, false
	}
	v, ok := n.Metadata[key]
	return v, ok
}

// SetMeta sets a metadata value.
func (n *Node) SetMeta(key string, v float64) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]float64)
	}
	n.Metadata[key] = v
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Running timelines targeting a
// disposed node stop on their next tick.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Mesh = nil
	n.Metadata = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
