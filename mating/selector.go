// Package mating detects mating features (protrusions and cavities) on raw
// mesh geometry and plans the move that seats one part into another.
//
// Detection runs in three synchronous passes over data already resident in
// the scene: normal-filtered face selection, greedy spatial clustering of the
// selected vertices, and a nearest-pair match between plug and hole clusters.
package mating

import (
	"math"

	"github.com/phanxgames/twin"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTolerance is the axis-mode slack used when none is given.
const DefaultTolerance = 0.1

// selectEpsilon absorbs floating-point error so that a zero tolerance still
// selects exactly parallel faces.
const selectEpsilon = 1e-9

// viewerFacingThreshold selects faces turned toward the viewer.
const viewerFacingThreshold = -0.5

// Face is a selected triangle with its world-space average normal.
type Face struct {
	twin.Triangle
	Normal r3.Vec
}

// Selection is the result of SelectFaces. In axis mode only Highlight is
// populated. In viewer mode Highlight holds the faces turned toward the
// viewer and Fill holds every remaining face, side walls included; the split
// is meant for visual debugging.
type Selection struct {
	Highlight []Face
	Fill      []Face
}

// Len returns the number of highlighted faces.
func (s Selection) Len() int {
	return len(s.Highlight)
}

// IndexTriples returns the index triples of the highlighted faces.
func (s Selection) IndexTriples() [][3]uint32 {
	out := make([][3]uint32, len(s.Highlight))
	for i, f := range s.Highlight {
		out[i] = f.Indices
	}
	return out
}

// Samples flattens the highlighted faces into per-corner samples in
// discovery order, each carrying its face's normal.
func (s Selection) Samples() []Sample {
	out := make([]Sample, 0, len(s.Highlight)*3)
	for _, f := range s.Highlight {
		for _, v := range f.Vertices {
			out = append(out, Sample{Position: v, Normal: f.Normal})
		}
	}
	return out
}

// SelectOptions picks the selection mode.
type SelectOptions struct {
	// Tolerance is the axis-mode slack; nil means DefaultTolerance.
	Tolerance *float64
	// ViewDirection switches to viewer mode when set: faces are classified
	// against the line of sight instead of the filter direction.
	ViewDirection *r3.Vec
}

// SelectFaces returns the faces of every mesh under node whose average world
// normal is aligned with dir.
//
// Axis mode selects a face when |n·dir| > 1 − tolerance, so faces parallel to
// the plane normal to dir are picked whichever side they face. Viewer mode
// highlights faces with n·view < −0.5. A mesh with no matching faces
// contributes nothing.
func SelectFaces(node *twin.Node, dir r3.Vec, opts SelectOptions) Selection {
	var sel Selection
	if node == nil {
		return sel
	}

	if opts.ViewDirection != nil {
		view := unit(*opts.ViewDirection)
		for _, t := range twin.WorldTriangles(node) {
			f := Face{Triangle: t, Normal: t.AverageNormal()}
			if r3.Dot(f.Normal, view) < viewerFacingThreshold {
				sel.Highlight = append(sel.Highlight, f)
			} else {
				sel.Fill = append(sel.Fill, f)
			}
		}
		return sel
	}

	axis := unit(dir)
	if axis == (r3.Vec{}) {
		return sel
	}
	tol := DefaultTolerance
	if opts.Tolerance != nil {
		tol = *opts.Tolerance
	}
	limit := 1 - tol - selectEpsilon
	for _, t := range twin.WorldTriangles(node) {
		n := t.AverageNormal()
		if math.Abs(r3.Dot(n, axis)) > limit {
			sel.Highlight = append(sel.Highlight, Face{Triangle: t, Normal: n})
		}
	}
	return sel
}

// Tolerance is a helper for SelectOptions literals.
func Tolerance(t float64) *float64 {
	return &t
}

func unit(v r3.Vec) r3.Vec {
	if r3.Norm(v) < 1e-12 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}
