package twin

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func renderScene() (*Scene, *Node) {
	s := NewScene(nil)
	s.Camera().Position = r3.Vec{Z: 3}
	s.Camera().Target = r3.Vec{}
	box := NewBox("box", r3.Vec{X: -0.1, Y: -0.1, Z: -0.1}, r3.Vec{X: 0.1, Y: 0.1, Z: 0.1})
	s.Root().AddChild(box)
	return s, box
}

func TestTraverseEmitsEdges(t *testing.T) {
	s, box := renderScene()
	box.Color = RGB(1, 0, 0)
	box.SetAlpha(0.5)

	cmds := s.traverse(s.Root(), 800, 600, nil)
	if len(cmds) != 36 {
		t.Fatalf("lines = %d, want 36", len(cmds))
	}
	for _, c := range cmds {
		if c.color != box.Color || c.alpha != 0.5 {
			t.Errorf("line style = %v/%v", c.color, c.alpha)
		}
		if c.x0 < 0 || c.x0 > 800 || c.y0 < 0 || c.y0 > 600 {
			t.Errorf("line starts off screen at (%v, %v)", c.x0, c.y0)
		}
	}
}

func TestTraverseSkipsHiddenAndTransparent(t *testing.T) {
	s, box := renderScene()
	box.SetAlpha(0)
	if n := len(s.traverse(s.Root(), 800, 600, nil)); n != 0 {
		t.Errorf("transparent box drew %d lines", n)
	}

	box.SetAlpha(1)
	s.Root().Visible = false
	if n := len(s.traverse(s.Root(), 800, 600, nil)); n != 0 {
		t.Errorf("hidden subtree drew %d lines", n)
	}
}

func TestTraverseCullsBehindCamera(t *testing.T) {
	s, box := renderScene()
	box.SetPosition(r3.Vec{Z: 10})
	if n := len(s.traverse(s.Root(), 800, 600, nil)); n != 0 {
		t.Errorf("box behind the eye drew %d lines", n)
	}
}

func TestColorToRGBA(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: 2, A: 1}.toRGBA(0.5)
	if c.R != 128 || c.G != 64 || c.B != 128 || c.A != 128 {
		t.Errorf("toRGBA = %+v", c)
	}
}
