package choreo

import (
	"context"
	"math"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/config"
	"github.com/phanxgames/twin/mating"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Stage is a phase of the removal choreography.
type Stage int

const (
	StageTilting Stage = iota
	StageSliding
	StageFadingOut
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageTilting:
		return "tilting"
	case StageSliding:
		return "sliding"
	case StageFadingOut:
		return "fadingOut"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// DisassemblyParams parameterizes Disassemble. Axes are world-space and
// normalized on use; angles are degrees and durations seconds.
type DisassemblyParams struct {
	TiltAngle     float64
	TiltAxis      r3.Vec
	LiftDistance  float64
	LiftAxis      r3.Vec
	SlideDistance float64
	SlideAxis     r3.Vec
	LiftDuration  float64
	SlideDuration float64
	FadeDuration  float64
	Easing        string
}

// ParamsFromConfig converts an assembly's disassembly block.
func ParamsFromConfig(c config.DisassemblyConfig) DisassemblyParams {
	return DisassemblyParams{
		TiltAngle:     c.TiltAngle,
		TiltAxis:      c.TiltAxis.R3(),
		LiftDistance:  c.LiftDistance,
		LiftAxis:      c.LiftAxis.R3(),
		SlideDistance: c.SlideDistance,
		SlideAxis:     c.SlideAxis.R3(),
		LiftDuration:  c.LiftDuration,
		SlideDuration: c.SlideDuration,
		FadeDuration:  c.FadeDuration,
		Easing:        c.Easing,
	}
}

// Choreography is the running tilt → slide → fade removal of one node. It
// implements twin.Animation; each stage is a twin.Timeline started when the
// previous one completes.
type Choreography struct {
	node   *twin.Node
	params DisassemblyParams
	hinge  r3.Vec
	logger *zap.Logger

	// Captured when the choreography is created.
	origin    r3.Vec
	rotation  quat.Number
	parentRot quat.Number
	startPos  r3.Vec
	tiltAxis  r3.Vec
	liftDir   r3.Vec
	slideDir  r3.Vec
	result    mating.MotionResult
	durations [3]float64

	stage   Stage
	current *twin.Timeline
	paused  bool

	// OnStage fires when a stage begins, and once with StageDone.
	OnStage func(Stage)
	// OnProgress fires every tick with the overall time fraction.
	OnProgress func(p float64)
	// OnComplete fires once, after the node has been hidden.
	OnComplete func()

	disposed bool
	done     chan struct{}
	stop     chan struct{}
}

// Disassemble starts the removal choreography for node, pivoting about the
// world-space hinge point.
//
// Tilting rotates the node by TiltAngle about TiltAxis through hinge. Every
// tick the rotation is applied first, then the position is corrected so the
// hinge keeps its world position, then a lift of LiftDistance·progress along
// LiftAxis is added. Sliding moves the node SlideDistance along SlideAxis.
// FadingOut ramps every mesh's alpha to 0 and finally hides the node; it is
// never removed from the tree.
func (c *Choreographer) Disassemble(node *twin.Node, params DisassemblyParams, hinge r3.Vec) *Choreography {
	ch := newChoreography(node, params, hinge, c.logger)
	c.logger.Debug("disassemble started",
		zap.String("node", node.Name),
		zap.Float64("tilt", params.TiltAngle),
		zap.Float64("slide", params.SlideDistance))
	ch.begin(StageTilting)
	c.scene.Play(ch)
	return ch
}

func newChoreography(node *twin.Node, p DisassemblyParams, hinge r3.Vec, logger *zap.Logger) *Choreography {
	if logger == nil {
		logger = zap.NewNop()
	}
	ch := &Choreography{
		node:      node,
		params:    p,
		hinge:     hinge,
		logger:    logger,
		origin:    node.WorldPosition(),
		rotation:  node.Rotation,
		parentRot: quat.Number{Real: 1},
		startPos:  node.Position,
		tiltAxis:  unit(p.TiltAxis),
		liftDir:   unit(p.LiftAxis),
		slideDir:  unit(p.SlideAxis),
		durations: [3]float64{
			math.Max(p.LiftDuration, 0),
			math.Max(p.SlideDuration, 0),
			math.Max(p.FadeDuration, 0),
		},
		done: make(chan struct{}),
		stop: make(chan struct{}),
	}
	if node.Parent != nil {
		ch.parentRot = node.Parent.WorldRotation()
	}

	tiltedWorld := r3.Add(ch.tiltedOrigin(1), r3.Scale(p.LiftDistance, ch.liftDir))
	finalWorld := r3.Add(tiltedWorld, r3.Scale(p.SlideDistance, ch.slideDir))
	ch.result = mating.MotionResult{
		OriginalPosition:    ch.startPos,
		TargetPosition:      node.WorldToParent(finalWorld),
		Duration:            ch.durations[0] + ch.durations[1] + ch.durations[2],
		Easing:              p.Easing,
		TranslationDistance: r3.Norm(r3.Sub(finalWorld, ch.origin)),
		ExtractDirection:    ch.slideDir,
		RotationAngle:       p.TiltAngle,
		RotationAxis:        ch.tiltAxis,
	}
	return ch
}

// tiltRotation is the world rotation applied at tilt fraction t.
func (ch *Choreography) tiltRotation(t float64) quat.Number {
	return twin.AxisAngle(ch.tiltAxis, ch.params.TiltAngle*math.Pi/180*t)
}

// tiltedOrigin is the world position of the node origin once rotated about
// the hinge by the tilt at fraction t.
func (ch *Choreography) tiltedOrigin(t float64) r3.Vec {
	arm := r3.Sub(ch.origin, ch.hinge)
	return r3.Add(ch.hinge, twin.RotateVec(ch.tiltRotation(t), arm))
}

func (ch *Choreography) applyTilt(t float64) {
	node := ch.node
	q := ch.tiltRotation(t)

	// rotation: world' = q·parent·local, so local' = parent⁻¹·q·parent·local
	local := quat.Mul(quat.Conj(ch.parentRot), quat.Mul(q, quat.Mul(ch.parentRot, ch.rotation)))
	node.SetRotation(local)

	// position correction keeps the hinge fixed
	node.SetPosition(node.WorldToParent(ch.tiltedOrigin(t)))

	// pre-emptive lift
	if ch.params.LiftDistance != 0 {
		node.Translate(r3.Scale(ch.params.LiftDistance*t, node.WorldDirToParent(ch.liftDir)))
	}
}

func (ch *Choreography) begin(stage Stage) {
	ch.stage = stage
	if ch.OnStage != nil {
		ch.OnStage(stage)
	}
	ch.logger.Debug("disassemble stage", zap.String("node", ch.node.Name), zap.Stringer("stage", stage))

	node := ch.node
	fn, _ := twin.Easing(ch.params.Easing)
	switch stage {
	case StageTilting:
		ch.current = twin.NewTimeline(node, float32(ch.durations[0]), fn, ch.applyTilt)
	case StageSliding:
		from := node.Position
		to := r3.Add(from, r3.Scale(ch.params.SlideDistance, node.WorldDirToParent(ch.slideDir)))
		ch.current = twin.TweenPosition(node, to, float32(ch.durations[1]), fn)
	case StageFadingOut:
		meshes := meshNodes(node)
		from := make([]float64, len(meshes))
		for i, m := range meshes {
			from[i] = m.Alpha
		}
		ch.current = twin.NewTimeline(node, float32(ch.durations[2]), nil, func(t float64) {
			for i, m := range meshes {
				m.Alpha = from[i] * (1 - t)
			}
		})
	case StageDone:
		ch.current = nil
		node.Visible = false
		if ch.OnComplete != nil {
			ch.OnComplete()
		}
		close(ch.done)
		return
	}
	if ch.paused {
		ch.current.Pause()
	}
}

// Update advances the current stage and moves on when it completes.
func (ch *Choreography) Update(dt float32) {
	if ch.disposed || ch.paused || ch.stage == StageDone {
		return
	}
	ch.current.Update(dt)
	if ch.current.Stopped() && !ch.current.Finished() {
		// target node disposed
		ch.Dispose()
		return
	}
	if ch.current.Finished() {
		ch.begin(ch.stage + 1)
	}
	if ch.OnProgress != nil {
		ch.OnProgress(ch.Progress())
	}
}

// Stage returns the current stage.
func (ch *Choreography) Stage() Stage { return ch.stage }

// Hinge returns the world-space pivot.
func (ch *Choreography) Hinge() r3.Vec { return ch.hinge }

// Result describes the whole removal move for history logging.
func (ch *Choreography) Result() mating.MotionResult { return ch.result }

// Progress returns the overall time fraction across the three stages.
func (ch *Choreography) Progress() float64 {
	if ch.stage == StageDone {
		return 1
	}
	total := ch.durations[0] + ch.durations[1] + ch.durations[2]
	if total == 0 {
		return 0
	}
	elapsed := 0.0
	for i := 0; i < int(ch.stage); i++ {
		elapsed += ch.durations[i]
	}
	if ch.current != nil {
		elapsed += ch.current.Progress() * ch.durations[ch.stage]
	}
	return elapsed / total
}

// Pause freezes the current stage.
func (ch *Choreography) Pause() {
	ch.paused = true
	if ch.current != nil {
		ch.current.Pause()
	}
}

// Resume continues from the frozen fraction.
func (ch *Choreography) Resume() {
	ch.paused = false
	if ch.current != nil {
		ch.current.Resume()
	}
}

// Dispose stops the choreography where it is. The node keeps its partial
// transform.
func (ch *Choreography) Dispose() {
	if ch.disposed || ch.stage == StageDone {
		return
	}
	ch.disposed = true
	if ch.current != nil {
		ch.current.Dispose()
	}
	close(ch.stop)
}

// Finished reports whether the node has been hidden.
func (ch *Choreography) Finished() bool { return ch.stage == StageDone }

// Stopped reports whether the choreography finished or was disposed.
func (ch *Choreography) Stopped() bool { return ch.disposed || ch.stage == StageDone }

// Done is closed when the choreography completes.
func (ch *Choreography) Done() <-chan struct{} { return ch.done }

// Wait blocks until completion. It returns twin.ErrInterrupted when the
// choreography is disposed first and ctx.Err() when ctx expires.
func (ch *Choreography) Wait(ctx context.Context) error {
	select {
	case <-ch.done:
		return nil
	case <-ch.stop:
		return twin.ErrInterrupted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HingePoint picks the pivot for a removal: the hole cluster nearest from,
// with its X snapped to whichever X face of bounds is closer. With no holes
// it returns the center of the bounds' min-X face and false.
func HingePoint(holes []mating.Cluster, bounds r3.Box, from r3.Vec) (r3.Vec, bool) {
	if len(holes) == 0 {
		c := twin.BoxCenter(bounds)
		c.X = bounds.Min.X
		return c, false
	}
	best := holes[0].Position
	bestDist := r3.Norm(r3.Sub(best, from))
	for _, h := range holes[1:] {
		if d := r3.Norm(r3.Sub(h.Position, from)); d < bestDist {
			best, bestDist = h.Position, d
		}
	}
	if math.Abs(best.X-bounds.Min.X) <= math.Abs(bounds.Max.X-best.X) {
		best.X = bounds.Min.X
	} else {
		best.X = bounds.Max.X
	}
	return best, true
}
