// Package fastener turns and extracts screws: one combined tween rotates the
// fastener about its axis while translating it along its thread direction.
package fastener

import (
	"context"
	"fmt"
	"math"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// MetaExtractDistance is the node metadata key carrying a per-part
// extraction distance.
const MetaExtractDistance = "extract_distance"

// Result describes one rotate-and-translate run.
type Result struct {
	Node             string
	RotationAngle    float64 // degrees, negative when reversed
	RotationAxis     r3.Vec  // fastener-local
	ExtractDirection r3.Vec  // world space, unit
	Distance         float64
	Duration         float64
	Easing           string
	OriginalPosition r3.Vec // parent frame
	TargetPosition   r3.Vec // parent frame
	Reversed         bool
}

// Options tune a single run.
type Options struct {
	// Distance overrides every other source of the travel distance.
	Distance *float64
	// Duration overrides the configured duration when positive.
	Duration float64
	// OnProgress receives the time fraction each tick.
	OnProgress func(p float64)
}

// Service drives fastener tweens on a scene. It keeps no per-fastener state:
// running forward twice turns and moves the fastener twice.
type Service struct {
	scene  *twin.Scene
	logger *zap.Logger
}

// New creates a fastener service.
func New(scene *twin.Scene, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scene: scene, logger: logger.With(zap.String("component", "fastener"))}
}

// Distance resolves the travel distance: override, then the configured
// distance, then the node's extract_distance metadata, and finally
// RotationAngle/360 × ScrewPitch.
func Distance(node *twin.Node, cfg config.ScrewAnimationConfig, override *float64) float64 {
	if override != nil {
		return *override
	}
	if cfg.ExtractDistance != nil {
		return *cfg.ExtractDistance
	}
	if node != nil {
		if d, ok := node.MetaValue(MetaExtractDistance); ok {
			return d
		}
	}
	return cfg.RotationAngle / 360 * cfg.ScrewPitch
}

// Start begins the forward tween on the tick goroutine and registers it with
// the scene.
func (s *Service) Start(node *twin.Node, cfg config.ScrewAnimationConfig, opts Options) (*twin.Timeline, Result) {
	return s.start(node, cfg, opts, false)
}

// StartReverse begins the inverse tween: it turns back by RotationAngle and
// retracts along the direction the forward run used.
func (s *Service) StartReverse(node *twin.Node, cfg config.ScrewAnimationConfig, opts Options) (*twin.Timeline, Result) {
	return s.start(node, cfg, opts, true)
}

func (s *Service) start(node *twin.Node, cfg config.ScrewAnimationConfig, opts Options, reverse bool) (*twin.Timeline, Result) {
	axis := cfg.RotationAxis.R3()
	angle := cfg.RotationAngle
	dist := Distance(node, cfg, opts.Distance)
	duration := cfg.Duration
	if opts.Duration > 0 {
		duration = opts.Duration
	}
	theta := angle * math.Pi / 180

	r0, p0 := node.Rotation, node.Position
	// The thread direction is fixed by the pre-turn orientation of the
	// forward run, so a reverse reconstructs it from the end rotation.
	base := r0
	sign := 1.0
	if reverse {
		base = quat.Mul(r0, twin.AxisAngle(axis, -theta))
		sign = -1
	}
	dirParent := twin.RotateVec(base, unitOr(cfg.ExtractDirection.R3(), axis))
	delta := r3.Scale(sign*dist, dirParent)

	res := Result{
		Node:             node.Name,
		RotationAngle:    sign * angle,
		RotationAxis:     axis,
		ExtractDirection: unitOr(node.ParentWorldMatrix().TransformVector(r3.Scale(sign, dirParent)), r3.Vec{}),
		Distance:         dist,
		Duration:         duration,
		Easing:           cfg.Easing,
		OriginalPosition: p0,
		TargetPosition:   r3.Add(p0, delta),
		Reversed:         reverse,
	}

	fn, _ := twin.Easing(cfg.Easing)
	tl := twin.NewTimeline(node, float32(duration), fn, func(t float64) {
		node.SetRotation(quat.Mul(r0, twin.AxisAngle(axis, sign*theta*t)))
		node.SetPosition(r3.Add(p0, r3.Scale(t, delta)))
	})
	tl.OnProgress = opts.OnProgress
	s.scene.Play(tl)

	s.logger.Debug("fastener tween started",
		zap.String("node", node.Name),
		zap.Bool("reverse", reverse),
		zap.Float64("angle", res.RotationAngle),
		zap.Float64("distance", dist))
	return tl, res
}

// RotateAndExtract resolves nodeName, runs the forward tween and waits for it
// to finish. It may be called from any goroutine other than the tick
// goroutine.
func (s *Service) RotateAndExtract(ctx context.Context, nodeName string, cfg config.ScrewAnimationConfig, opts Options) (Result, error) {
	return s.run(ctx, nodeName, cfg, opts, false)
}

// Reverse undoes RotateAndExtract for the same configuration.
func (s *Service) Reverse(ctx context.Context, nodeName string, cfg config.ScrewAnimationConfig, opts Options) (Result, error) {
	return s.run(ctx, nodeName, cfg, opts, true)
}

func (s *Service) run(ctx context.Context, nodeName string, cfg config.ScrewAnimationConfig, opts Options, reverse bool) (Result, error) {
	var (
		tl  *twin.Timeline
		res Result
	)
	err := s.scene.Call(ctx, func() error {
		node, err := s.scene.Find(nodeName)
		if err != nil {
			return err
		}
		tl, res = s.start(node, cfg, opts, reverse)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("fastener %s: %w", nodeName, err)
	}
	if err := tl.Wait(ctx); err != nil {
		return res, fmt.Errorf("fastener %s: %w", nodeName, err)
	}
	return res, nil
}

func unitOr(v, fallback r3.Vec) r3.Vec {
	if r3.Norm(v) < 1e-12 {
		if r3.Norm(fallback) < 1e-12 {
			return r3.Vec{}
		}
		return r3.Unit(fallback)
	}
	return r3.Unit(v)
}
