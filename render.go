package twin

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// lineCommand is a single projected wireframe edge emitted during traversal.
type lineCommand struct {
	x0, y0, x1, y1 float32
	color          Color
	alpha          float64
}

// wireframeStroke is the edge width in pixels.
const wireframeStroke = 1

// traverse walks the tree depth-first and emits one line per projected
// triangle edge for visible mesh nodes with non-zero opacity. Invisible
// nodes hide their whole subtree.
func (s *Scene) traverse(n *Node, width, height float64, out []lineCommand) []lineCommand {
	if !n.Visible {
		return out
	}
	if !n.Mesh.IsEmpty() && n.Alpha > 0 {
		m := n.WorldMatrix()
		for i := 0; i < n.Mesh.TriangleCount(); i++ {
			tri := n.Mesh.Triangle(i)
			var (
				px, py [3]float64
				ok     = true
			)
			for k := 0; k < 3 && ok; k++ {
				px[k], py[k], ok = s.camera.Project(m.TransformPoint(n.Mesh.Positions[tri[k]]), width, height)
			}
			if !ok {
				continue
			}
			for k := 0; k < 3; k++ {
				j := (k + 1) % 3
				out = append(out, lineCommand{
					x0: float32(px[k]), y0: float32(py[k]),
					x1: float32(px[j]), y1: float32(py[j]),
					color: n.Color,
					alpha: n.Alpha,
				})
			}
		}
	}
	for _, c := range n.children {
		out = s.traverse(c, width, height, out)
	}
	return out
}

// Draw renders every visible mesh as a wireframe through the scene camera,
// followed by the Status overlay line, then writes any queued screenshots.
func (s *Scene) Draw(screen *ebiten.Image) {
	screen.Fill(s.ClearColor.toRGBA(1))
	b := screen.Bounds()
	cmds := s.traverse(s.root, float64(b.Dx()), float64(b.Dy()), nil)
	for _, c := range cmds {
		vector.StrokeLine(screen, c.x0, c.y0, c.x1, c.y1, wireframeStroke, c.color.toRGBA(c.alpha), true)
	}
	if s.Status != "" {
		ebitenutil.DebugPrint(screen, s.Status)
	}
	s.flushScreenshots(screen)
}

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// OnTick, if set, runs after each scene tick on the tick goroutine.
	OnTick func(s *Scene)
}

type game struct {
	scene *Scene
	cfg   RunConfig
}

func (g *game) Update() error {
	g.scene.Update()
	if g.cfg.OnTick != nil {
		g.cfg.OnTick(g.scene)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) { g.scene.Draw(screen) }

func (g *game) Layout(_, _ int) (int, int) { return g.cfg.Width, g.cfg.Height }

// Run opens a window and drives the scene's tick loop until the window is
// closed.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 640
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(&game{scene: scene, cfg: cfg})
}
