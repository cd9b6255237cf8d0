package twin

import (
	"errors"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default wireframe color.
var ColorWhite = Color{1, 1, 1, 1}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// toRGBA converts to an 8-bit color, folding in the extra alpha factor.
func (c Color) toRGBA(alpha float64) color.RGBA {
	a := clamp01(c.A * alpha)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// World axes. The scene is Y-up, right-handed.
var (
	WorldUp    = r3.Vec{Y: 1}
	WorldRight = r3.Vec{X: 1}
)

// NodeID is an opaque, stable handle for a node. Names are resolved to
// handles once at the loader boundary; internal code holds *Node or NodeID.
type NodeID uint32

// NodeType distinguishes nodes that carry geometry from pure groups.
type NodeType uint8

const (
	NodeTypeContainer NodeType = iota // group node with no geometry
	NodeTypeMesh                      // owns a triangle mesh
)

var (
	// ErrNotFound is returned when a named scene node does not exist.
	ErrNotFound = errors.New("twin: node not found")
	// ErrInterrupted is returned from Wait when an animation is disposed
	// before it completes. Completion callbacks never fire in that case.
	ErrInterrupted = errors.New("twin: animation interrupted")
)
