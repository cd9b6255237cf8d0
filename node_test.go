package twin

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewContainerDefaults(t *testing.T) {
	n := NewContainer("test")
	if n.Name != "test" {
		t.Errorf("Name = %q, want %q", n.Name, "test")
	}
	if n.Type != NodeTypeContainer {
		t.Errorf("Type = %d, want NodeTypeContainer", n.Type)
	}
	if n.ID == 0 {
		t.Error("ID should be assigned")
	}
	if n.Scale != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Scale = %v, want unit", n.Scale)
	}
	if n.Rotation.Real != 1 {
		t.Errorf("Rotation = %v, want identity", n.Rotation)
	}
	if !n.Visible || n.Alpha != 1 {
		t.Error("new nodes should be visible and opaque")
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	a := NewContainer("a")
	b := NewMesh("b", BoxMesh(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))
	if a.ID == b.ID {
		t.Errorf("IDs collide: %d", a.ID)
	}
	if b.Type != NodeTypeMesh {
		t.Errorf("Type = %d, want NodeTypeMesh", b.Type)
	}
}

func TestAddChild(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("child not in parent's children")
	}
}

func TestAddChildReparents(t *testing.T) {
	p1 := NewContainer("p1")
	p2 := NewContainer("p2")
	child := NewContainer("child")
	p1.AddChild(child)
	p2.AddChild(child)

	if p1.NumChildren() != 0 {
		t.Errorf("p1 children = %d, want 0", p1.NumChildren())
	}
	if child.Parent != p2 {
		t.Error("child.Parent should be p2")
	}
}

func TestAddChildCyclePanics(t *testing.T) {
	a := NewContainer("a")
	b := NewContainer("b")
	a.AddChild(b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on cycle")
		}
	}()
	b.AddChild(a)
}

func TestAddChildNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on nil child")
		}
	}()
	NewContainer("a").AddChild(nil)
}

func TestRemoveChild(t *testing.T) {
	parent := NewContainer("parent")
	a := NewContainer("a")
	b := NewContainer("b")
	parent.AddChild(a)
	parent.AddChild(b)

	parent.RemoveChild(a)
	if a.Parent != nil {
		t.Error("removed child should have nil parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != b {
		t.Error("remaining child should be b")
	}

	b.RemoveFromParent()
	if parent.NumChildren() != 0 {
		t.Error("parent should be empty")
	}
	b.RemoveFromParent() // no-op
}

func TestRemoveChildWrongParentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewContainer("a").RemoveChild(NewContainer("b"))
}

func TestWalkSkipsSubtree(t *testing.T) {
	root := NewContainer("root")
	a := NewContainer("a")
	a.AddChild(NewContainer("a1"))
	root.AddChild(a)
	root.AddChild(NewContainer("b"))

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Name)
		return n.Name != "a"
	})
	want := []string{"root", "a", "b"}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestFindNodeByNamePreOrder(t *testing.T) {
	root := NewContainer("root")
	a := NewContainer("a")
	dup1 := NewContainer("dup")
	a.AddChild(dup1)
	root.AddChild(a)
	root.AddChild(NewContainer("dup"))

	if got := FindNodeByName(root, "dup"); got != dup1 {
		t.Error("expected the first pre-order match")
	}
	if FindNodeByName(root, "missing") != nil {
		t.Error("missing name should return nil")
	}
	if FindNodeByName(nil, "root") != nil {
		t.Error("nil root should return nil")
	}
}

func TestFindNodeByID(t *testing.T) {
	root := NewContainer("root")
	child := NewContainer("child")
	root.AddChild(child)

	if FindNodeByID(root, child.ID) != child {
		t.Error("lookup by ID failed")
	}
	if FindNodeByID(root, 0) != nil {
		t.Error("zero ID should return nil")
	}
}

func TestMetadata(t *testing.T) {
	n := NewContainer("screw")
	if _, ok := n.MetaValue("pitch"); ok {
		t.Error("unset key should report false")
	}
	n.SetMeta("pitch", 0.005)
	v, ok := n.MetaValue("pitch")
	if !ok || v != 0.005 {
		t.Errorf("MetaValue = %v, %v", v, ok)
	}
}

func TestDisposeSubtree(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	grandchild := NewContainer("grandchild")
	child.AddChild(grandchild)
	parent.AddChild(child)

	child.Dispose()
	if !child.IsDisposed() || !grandchild.IsDisposed() {
		t.Error("subtree should be disposed")
	}
	if parent.NumChildren() != 0 {
		t.Error("disposed child should be detached")
	}
	if child.ID != 0 {
		t.Error("disposed node should drop its ID")
	}
	child.Dispose() // idempotent
}

func TestAddChildDisposedPanics(t *testing.T) {
	child := NewContainer("child")
	child.Dispose()
	defer func() {
		if recover() == nil {
			t.Error("expected panic adding a disposed node")
		}
	}()
	NewContainer("parent").AddChild(child)
}
