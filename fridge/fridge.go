// Package fridge builds a procedural refrigerator model with a damper
// sub-assembly, and the configuration that services it. It stands in for a
// loaded asset in the viewer and in tests.
package fridge

import (
	_ "embed"
	"math"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/config"
	"gonum.org/v1/gonum/spatial/r3"
)

// Node names used by the model and its configuration.
const (
	Root         = "fridge"
	Cabinet      = "cabinet"
	LeftDoor     = "door_left"
	RightDoor    = "door_right"
	Housing      = "damper_housing"
	HousingShell = "housing_shell"
	Cavity       = "damper_cavity"
	Flap         = "damper_flap"
	Holder       = "holder_bracket"
	Cover        = "damper_cover"
	CoverPlate   = "cover_plate"
	CoverPlug    = "cover_plug"
	Screw1       = "screw1"
	Screw2       = "screw2"
)

// HousingPosition is the world position of the damper housing origin, the
// floor of its cavity.
var HousingPosition = r3.Vec{Y: 1.4, Z: -0.2}

// CoverStart is the world position of the loose cover in front of the
// housing.
var CoverStart = r3.Vec{Y: 1.4, Z: -0.1}

//go:embed service.yaml
var serviceYAML []byte

// ServiceYAML returns the raw default configuration document.
func ServiceYAML() []byte {
	out := make([]byte, len(serviceYAML))
	copy(out, serviceYAML)
	return out
}

// Config parses the default configuration.
func Config() (*config.File, error) {
	return config.Parse(serviceYAML)
}

// Build returns a fresh model tree rooted at a container named Root.
func Build() *twin.Node {
	root := twin.NewContainer(Root)

	cabinet := twin.NewMesh(Cabinet, twin.CavityMesh(
		r3.Vec{X: -0.35, Y: 0, Z: -0.35},
		r3.Vec{X: 0.35, Y: 1.8, Z: 0.35},
		r3.Vec{Z: 1},
	))
	cabinet.Color = twin.RGB(0.75, 0.78, 0.8)
	root.AddChild(cabinet)

	root.AddChild(door(LeftDoor, r3.Vec{X: -0.35, Z: 0.35}, r3.Vec{}, r3.Vec{X: 0.35, Y: 1.8, Z: 0.04}))
	root.AddChild(door(RightDoor, r3.Vec{X: 0.35, Z: 0.35}, r3.Vec{X: -0.35}, r3.Vec{Y: 1.8, Z: 0.04}))

	root.AddChild(housing())
	root.AddChild(cover())
	return root
}

func door(name string, hinge, lo, hi r3.Vec) *twin.Node {
	d := twin.NewContainer(name)
	d.SetPosition(hinge)
	panel := twin.NewBox(name+"_panel", lo, hi)
	panel.Color = twin.RGB(0.9, 0.9, 0.92)
	d.AddChild(panel)
	return d
}

func housing() *twin.Node {
	h := twin.NewContainer(Housing)
	h.SetPosition(HousingPosition)

	shell := twin.NewBox(HousingShell, r3.Vec{X: -0.09, Y: -0.07, Z: -0.03}, r3.Vec{X: 0.09, Y: 0.07, Z: -0.01})
	shell.Color = twin.RGB(0.4, 0.45, 0.5)
	h.AddChild(shell)

	cavity := twin.NewMesh(Cavity, twin.CavityMesh(
		r3.Vec{X: -0.02, Y: -0.02, Z: 0},
		r3.Vec{X: 0.02, Y: 0.02, Z: 0.03},
		r3.Vec{Z: 1},
	))
	cavity.Color = twin.RGB(0.95, 0.6, 0.2)
	h.AddChild(cavity)

	flap := twin.NewBox(Flap, r3.Vec{X: -0.07, Y: 0.03, Z: -0.01}, r3.Vec{X: -0.03, Y: 0.06, Z: 0})
	flap.Color = twin.RGB(0.3, 0.7, 0.9)
	h.AddChild(flap)

	holder := twin.NewBox(Holder, r3.Vec{X: 0.03, Y: -0.05, Z: 0}, r3.Vec{X: 0.07, Y: 0.05, Z: 0.01})
	holder.Color = twin.RGB(0.8, 0.3, 0.3)
	h.AddChild(holder)

	for _, s := range []struct {
		name string
		x    float64
	}{{Screw1, -0.06}, {Screw2, 0.06}} {
		screw := twin.NewMesh(s.name, twin.CylinderMesh(0.004, 0.012, 12))
		screw.SetPosition(r3.Vec{X: s.x, Y: -0.045, Z: 0.006})
		// the thread axis (local Y) points out of the housing along +Z
		screw.SetRotation(twin.AxisAngle(r3.Vec{X: 1}, math.Pi/2))
		screw.Color = twin.RGB(0.7, 0.7, 0.7)
		h.AddChild(screw)
	}
	return h
}

func cover() *twin.Node {
	c := twin.NewContainer(Cover)
	c.SetPosition(CoverStart)

	plate := twin.NewBox(CoverPlate, r3.Vec{X: -0.05, Y: -0.05, Z: 0}, r3.Vec{X: 0.05, Y: 0.05, Z: 0.008})
	plate.Color = twin.RGB(0.95, 0.95, 0.6)
	c.AddChild(plate)

	plug := twin.NewBox(CoverPlug, r3.Vec{X: -0.015, Y: -0.015, Z: -0.02}, r3.Vec{X: 0.015, Y: 0.015, Z: 0})
	plug.Color = twin.RGB(0.95, 0.8, 0.3)
	c.AddChild(plug)
	return c
}
