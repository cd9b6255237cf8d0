package mating

import (
	"math"

	"github.com/phanxgames/twin"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultClearance keeps a seated part from visibly interpenetrating the
// surface it rests against.
const DefaultClearance = 0.002

// dedupeFactor scales the clustering threshold into the plug dedupe radius.
const dedupeFactor = 1.5

// MotionResult is a planned or executed move. Positions are always in the
// moving node's parent frame so they survive reparenting.
type MotionResult struct {
	OriginalPosition    r3.Vec
	TargetPosition      r3.Vec
	Duration            float64
	Easing              string
	TranslationDistance float64
	// ExtractDirection is a world-space unit vector captured at detection
	// time.
	ExtractDirection r3.Vec
	// RotationAngle (degrees) and RotationAxis describe any rotation the
	// move applies; zero for a pure translation.
	RotationAngle float64
	RotationAxis  r3.Vec
	// RotationOffset is an extra seating rotation, Euler degrees (XYZ).
	RotationOffset r3.Vec

	// Plug and Hole are the matched clusters.
	Plug Cluster
	Hole Cluster
}

// Planner pairs plug clusters with hole clusters and turns the nearest pair
// into a move for the part carrying the plugs.
type Planner struct {
	// Clearance is subtracted from the plug-hole distance.
	Clearance float64
	// ClusterDistance is the clustering threshold; plug clusters closer than
	// 1.5× this are merged before matching. Zero disables the merge.
	ClusterDistance float64
	Logger          *zap.Logger
}

// PlanAssemblyMove plans with a bare Planner using the given clearance.
func PlanAssemblyMove(moving *twin.Node, plugs, holes []Cluster, clearance float64) (MotionResult, bool) {
	return Planner{Clearance: clearance}.Plan(moving, plugs, holes)
}

// Plan returns the move that brings the nearest plug to its hole, or false
// when either list is empty, in which case the caller must not move
// anything.
//
// The world displacement hole−plug is shortened by Clearance (never below
// zero), added to the moving node's current world position and reprojected
// into its parent's frame.
func (p Planner) Plan(moving *twin.Node, plugs, holes []Cluster) (MotionResult, bool) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if p.ClusterDistance > 0 {
		plugs = DedupeClusters(plugs, dedupeFactor*p.ClusterDistance)
	}
	pi, hi, dist, ok := NearestPair(plugs, holes)
	if !ok {
		log.Warn("no detectable mating",
			zap.Int("plugs", len(plugs)), zap.Int("holes", len(holes)))
		return MotionResult{}, false
	}
	plug, hole := plugs[pi], holes[hi]

	raw := r3.Sub(hole.Position, plug.Position)
	dir := unit(raw)
	if dir == (r3.Vec{}) {
		dir = r3.Scale(-1, plug.InsertionDirection)
	}
	shrunk := math.Max(dist-p.Clearance, 0)
	move := r3.Scale(shrunk, dir)

	targetWorld := r3.Add(moving.WorldPosition(), move)
	res := MotionResult{
		OriginalPosition:    moving.Position,
		TargetPosition:      moving.WorldToParent(targetWorld),
		TranslationDistance: shrunk,
		ExtractDirection:    dir,
		Plug:                plug,
		Hole:                hole,
	}
	log.Debug("planned assembly move",
		zap.String("node", moving.Name),
		zap.Float64("distance", dist),
		zap.Float64("translation", shrunk))
	return res, true
}

// NearestPair performs an exhaustive search for the (plug, hole) pair with
// the smallest Euclidean distance. Ties keep the first pair found. ok is
// false when either list is empty.
func NearestPair(plugs, holes []Cluster) (plugIndex, holeIndex int, dist float64, ok bool) {
	if len(plugs) == 0 || len(holes) == 0 {
		return 0, 0, 0, false
	}
	best := math.Inf(1)
	for i, pc := range plugs {
		for j, hc := range holes {
			d := r3.Norm(r3.Sub(hc.Position, pc.Position))
			if d < best {
				best, plugIndex, holeIndex = d, i, j
			}
		}
	}
	return plugIndex, holeIndex, best, true
}

// DedupeClusters merges clusters whose centers lie within radius of an
// already kept cluster, keeping whichever has more members. Symmetric
// features are often detected as two near-duplicate blobs.
func DedupeClusters(clusters []Cluster, radius float64) []Cluster {
	var kept []Cluster
	for _, c := range clusters {
		merged := false
		for i, k := range kept {
			if r3.Norm(r3.Sub(c.Position, k.Position)) < radius {
				if c.MemberCount > k.MemberCount {
					kept[i] = c
				}
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, c)
		}
	}
	return kept
}
