package twin

import (
	"math"

	"github.com/tanema/gween/ease"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective camera looking from Position toward Target.
type Camera struct {
	// Position is the eye point in world space.
	Position r3.Vec
	// Target is the world-space point the camera looks at.
	Target r3.Vec
	// Up orients the camera roll; usually WorldUp.
	Up r3.Vec
	// FovY is the vertical field of view in radians.
	FovY float64
	// Near clips points closer than this to the eye.
	Near float64

	move *Timeline
}

// NewCamera creates a camera three units in front of the origin looking at it.
func NewCamera() *Camera {
	return &Camera{
		Position: r3.Vec{Y: 1, Z: 3},
		Target:   r3.Vec{Y: 1},
		Up:       WorldUp,
		FovY:     50 * math.Pi / 180,
		Near:     0.01,
	}
}

// ViewDirection returns the unit line of sight.
func (c *Camera) ViewDirection() r3.Vec {
	d := r3.Sub(c.Target, c.Position)
	if r3.Norm(d) < 1e-12 {
		return r3.Vec{Z: -1}
	}
	return r3.Unit(d)
}

// MoveTo animates the camera eye and target over duration seconds. The
// returned timeline is ticked by the scene; any previous move is disposed.
func (c *Camera) MoveTo(position, target r3.Vec, duration float32, fn ease.TweenFunc) *Timeline {
	if c.move != nil {
		c.move.Dispose()
	}
	fromPos, fromTarget := c.Position, c.Target
	c.move = NewTimeline(nil, duration, fn, func(t float64) {
		c.Position = lerpVec(fromPos, position, t)
		c.Target = lerpVec(fromTarget, target, t)
	})
	return c.move
}

// Moving reports whether a MoveTo is in flight.
func (c *Camera) Moving() bool {
	return c.move != nil && !c.move.Stopped()
}

// update advances the camera move. Called from Scene.Tick.
func (c *Camera) update(dt float32) {
	if c.move == nil {
		return
	}
	c.move.Update(dt)
	if c.move.Stopped() {
		c.move = nil
	}
}

// FramePose returns an eye position and target that fit box in view when
// looking along viewDir.
func (c *Camera) FramePose(box r3.Box, viewDir r3.Vec) (position, target r3.Vec) {
	target = BoxCenter(box)
	radius := 0.0
	for _, p := range boxCorners(box) {
		radius = math.Max(radius, r3.Norm(r3.Sub(p, target)))
	}
	if radius == 0 {
		radius = 0.5
	}
	dist := radius / math.Sin(c.FovY/2)
	dir := unitOrZero(viewDir)
	if dir == (r3.Vec{}) {
		dir = r3.Vec{Z: -1}
	}
	return r3.Sub(target, r3.Scale(dist, dir)), target
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera) ViewMatrix() Mat4 {
	return lookAt(c.Position, c.Target, c.Up)
}

// Project maps a world point to screen pixels for a width x height viewport.
// ok is false when the point lies behind the near plane.
func (c *Camera) Project(p r3.Vec, width, height float64) (x, y float64, ok bool) {
	v := c.ViewMatrix().TransformPoint(p)
	if -v.Z < c.Near {
		return 0, 0, false
	}
	f := 1 / math.Tan(c.FovY/2)
	aspect := width / height
	ndcX := (f / aspect) * v.X / -v.Z
	ndcY := f * v.Y / -v.Z
	return (ndcX + 1) * width / 2, (1 - ndcY) * height / 2, true
}

// lookAt builds a right-handed view matrix.
func lookAt(eye, center, up r3.Vec) Mat4 {
	z := unitOrZero(r3.Sub(eye, center))
	if z == (r3.Vec{}) {
		z = r3.Vec{Z: 1}
	}
	x := unitOrZero(r3.Cross(up, z))
	if x == (r3.Vec{}) {
		x = unitOrZero(r3.Cross(WorldRight, z))
	}
	y := r3.Cross(z, x)
	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-r3.Dot(x, eye), -r3.Dot(y, eye), -r3.Dot(z, eye), 1,
	}
}
