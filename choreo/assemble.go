// Package choreo drives the animated choreographies applied to one node at a
// time: the linear assembly move, the three-stage pivot-preserving removal,
// door swings and the restore that brings a removed part back.
//
// Everything here runs on the scene's tick goroutine. The returned handles
// are registered with the scene and advanced by its Tick.
package choreo

import (
	"math"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/mating"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Choreographer starts choreographies on a scene.
type Choreographer struct {
	scene  *twin.Scene
	logger *zap.Logger
}

// New creates a choreographer bound to scene.
func New(scene *twin.Scene, logger *zap.Logger) *Choreographer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Choreographer{scene: scene, logger: logger.With(zap.String("component", "choreo"))}
}

// Assemble tweens node from its current local position to
// motion.TargetPosition over motion.Duration, reporting the time fraction to
// onProgress each tick. A non-zero motion.RotationOffset is blended in over
// the same tween. The returned timeline supports Reverse.
func (c *Choreographer) Assemble(node *twin.Node, motion mating.MotionResult, onProgress func(p float64)) *twin.Timeline {
	fn, _ := twin.Easing(motion.Easing)
	from := node.Position
	fromRot := node.Rotation
	toRot := quat.Mul(fromRot, eulerDegrees(motion.RotationOffset))
	rotate := motion.RotationOffset != (r3.Vec{})

	tl := twin.NewTimeline(node, float32(motion.Duration), fn, func(t float64) {
		if rotate {
			node.SetRotation(twin.Slerp(fromRot, toRot, t))
		}
		node.SetPosition(lerp(from, motion.TargetPosition, t))
	})
	tl.OnProgress = onProgress
	c.logger.Debug("assemble started",
		zap.String("node", node.Name),
		zap.Float64("distance", motion.TranslationDistance),
		zap.Float64("duration", motion.Duration))
	c.scene.Play(tl)
	return tl
}

// Translate tweens node along a world-space direction by distance.
func (c *Choreographer) Translate(node *twin.Node, worldDir r3.Vec, distance, duration float64, easing string) (*twin.Timeline, mating.MotionResult) {
	fn, _ := twin.Easing(easing)
	dir := unit(worldDir)
	targetWorld := r3.Add(node.WorldPosition(), r3.Scale(distance, dir))
	res := mating.MotionResult{
		OriginalPosition:    node.Position,
		TargetPosition:      node.WorldToParent(targetWorld),
		Duration:            duration,
		Easing:              easing,
		TranslationDistance: math.Abs(distance),
		ExtractDirection:    dir,
	}
	tl := twin.TweenPosition(node, res.TargetPosition, float32(duration), fn)
	c.scene.Play(tl)
	return tl, res
}

// SwingDoor rotates node about a parent-frame axis to closed·R(axis, degrees).
// closed is the door's rest rotation; zero degrees closes it.
func (c *Choreographer) SwingDoor(node *twin.Node, closed quat.Number, axis r3.Vec, degrees, duration float64, easing string) *twin.Timeline {
	fn, _ := twin.Easing(easing)
	to := quat.Mul(twin.AxisAngle(axis, degrees*math.Pi/180), closed)
	tl := twin.TweenRotation(node, to, float32(duration), fn)
	c.scene.Play(tl)
	return tl
}

// Restore brings a removed node back: it becomes visible, every mesh fades
// back in and the node returns to the given local pose.
func (c *Choreographer) Restore(node *twin.Node, position r3.Vec, rotation quat.Number, duration float64, easing string) *twin.Timeline {
	fn, _ := twin.Easing(easing)
	meshes := meshNodes(node)
	fromAlpha := make([]float64, len(meshes))
	for i, m := range meshes {
		if !node.Visible {
			m.Alpha = 0
		}
		fromAlpha[i] = m.Alpha
	}
	node.Visible = true
	fromPos, fromRot := node.Position, node.Rotation
	tl := twin.NewTimeline(node, float32(duration), fn, func(t float64) {
		node.SetRotation(twin.Slerp(fromRot, rotation, t))
		node.SetPosition(lerp(fromPos, position, t))
		for i, m := range meshes {
			m.Alpha = fromAlpha[i] + (1-fromAlpha[i])*t
		}
	})
	c.scene.Play(tl)
	return tl
}

// eulerDegrees builds the rotation Rz·Ry·Rx from XYZ Euler angles in degrees.
func eulerDegrees(e r3.Vec) quat.Number {
	const d2r = math.Pi / 180
	qx := twin.AxisAngle(r3.Vec{X: 1}, e.X*d2r)
	qy := twin.AxisAngle(r3.Vec{Y: 1}, e.Y*d2r)
	qz := twin.AxisAngle(r3.Vec{Z: 1}, e.Z*d2r)
	return quat.Mul(qz, quat.Mul(qy, qx))
}

// meshNodes returns node and its descendants that carry geometry.
func meshNodes(node *twin.Node) []*twin.Node {
	var out []*twin.Node
	node.Walk(func(n *twin.Node) bool {
		if n.Mesh != nil {
			out = append(out, n)
		}
		return true
	})
	return out
}

func lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

func unit(v r3.Vec) r3.Vec {
	if r3.Norm(v) < 1e-12 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}
