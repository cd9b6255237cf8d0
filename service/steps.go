package service

import (
	"context"
	"fmt"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/choreo"
	"github.com/phanxgames/twin/config"
	"github.com/phanxgames/twin/fastener"
	"github.com/phanxgames/twin/history"
	"github.com/phanxgames/twin/mating"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Step names one stage of the damper-service procedure.
type Step string

const (
	StepMoveCamera         Step = "MoveCamera"
	StepAssembleCover      Step = "AssembleCoverDetectAndAlign"
	StepLoosenFastener1    Step = "LoosenFastener1"
	StepLoosenFastener2    Step = "LoosenFastener2"
	StepTranslateBody      Step = "TranslateBody"
	StepTranslateFastener2 Step = "TranslateFastener2"
	StepTightenFastener1   Step = "TightenFastener1"
	StepTightenFastener2   Step = "TightenFastener2"
	StepRemoveHolderNode   Step = "RemoveHolderNode"
	StepRestoreCover       Step = "RestoreCoverToOriginalPosition"
)

// Sequence is the fixed order of the procedure.
var Sequence = []Step{
	StepMoveCamera,
	StepAssembleCover,
	StepLoosenFastener1,
	StepLoosenFastener2,
	StepTranslateBody,
	StepTranslateFastener2,
	StepTightenFastener1,
	StepTightenFastener2,
	StepRemoveHolderNode,
	StepRestoreCover,
}

type stepFunc func(ctx context.Context, r *run) (history.Record, error)

// run carries state between the steps of one procedure. Node pointers are
// dereferenced on the tick goroutine only.
type run struct {
	id  string
	asm config.AssemblyConfig

	part         *twin.Node
	partPosition r3.Vec
	partRotation quat.Number

	// body motion, replayed on the second fastener when no follow movement
	// is configured
	bodyMoved    bool
	bodyDir      r3.Vec
	bodyDistance float64
	bodyDuration float64
	bodyEasing   string
}

// RunDamperService executes the whole procedure and returns the run's
// history records. Skipped steps are recorded and the sequence continues; a
// missing structural node or configuration entry aborts with an error
// wrapping ErrAborted and the cause.
func (o *Orchestrator) RunDamperService(ctx context.Context) ([]history.Record, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
		cancel()
	}()

	r := &run{id: newRunID()}
	log := o.logger.With(zap.String("run_id", r.id))
	log.Info("damper service started")

	for _, phase := range o.phases() {
		if err := o.runPhase(ctx, r, phase); err != nil {
			o.metrics.observeRun(outcomeFailed)
			log.Error("damper service aborted", zap.Error(err))
			return o.history.Run(r.id), err
		}
	}

	o.metrics.observeRun(outcomeOK)
	log.Info("damper service finished")
	return o.history.Run(r.id), nil
}

// runPhase runs the steps of one phase, concurrently when there is more
// than one, and appends their records in Sequence order once all of them
// have returned. Records of an aborted step are dropped.
func (o *Orchestrator) runPhase(ctx context.Context, r *run, phase []plannedStep) error {
	if len(phase) == 1 {
		rec, err := o.runStep(ctx, r, phase[0].step, phase[0].fn)
		if err != nil {
			return err
		}
		o.history.Append(rec)
		return nil
	}

	recs := make([]*history.Record, len(phase))
	g, gctx := errgroup.WithContext(ctx)
	for i, ps := range phase {
		g.Go(func() error {
			rec, err := o.runStep(gctx, r, ps.step, ps.fn)
			if err != nil {
				return err
			}
			recs[i] = &rec
			return nil
		})
	}
	err := g.Wait()
	for _, rec := range recs {
		if rec != nil {
			o.history.Append(*rec)
		}
	}
	return err
}

type plannedStep struct {
	step Step
	fn   stepFunc
}

// phases groups Sequence into units that are awaited one after another.
// With ParallelFasteners the two fasteners of a loosen or tighten step share
// a phase.
func (o *Orchestrator) phases() [][]plannedStep {
	fns := map[Step]stepFunc{
		StepMoveCamera:         o.moveCamera,
		StepAssembleCover:      o.assembleCover,
		StepLoosenFastener1:    o.fastenerStep(o.cfg.Service.Fastener1, false),
		StepLoosenFastener2:    o.fastenerStep(o.cfg.Service.Fastener2, false),
		StepTranslateBody:      o.translateBody,
		StepTranslateFastener2: o.translateFastener2,
		StepTightenFastener1:   o.fastenerStep(o.cfg.Service.Fastener1, true),
		StepTightenFastener2:   o.fastenerStep(o.cfg.Service.Fastener2, true),
		StepRemoveHolderNode:   o.removeHolder,
		StepRestoreCover:       o.restoreCover,
	}
	var out [][]plannedStep
	for i := 0; i < len(Sequence); i++ {
		s := Sequence[i]
		p := []plannedStep{{s, fns[s]}}
		if o.cfg.Service.ParallelFasteners && (s == StepLoosenFastener1 || s == StepTightenFastener1) {
			next := Sequence[i+1]
			p = append(p, plannedStep{next, fns[next]})
			i++
		}
		out = append(out, p)
	}
	return out
}

func (o *Orchestrator) moveCamera(ctx context.Context, _ *run) (history.Record, error) {
	cam := o.cfg.Service.Camera
	rec := history.Record{Action: "moveCamera", Duration: history.Float(cam.Duration), Easing: history.String(cam.Easing)}
	if cam.FrameNode == "" && cam.Position.IsZero() && cam.Target.IsZero() {
		return rec, skipf("no camera pose configured")
	}

	var pos, target r3.Vec
	err := o.animate(ctx, func() (twin.Animation, error) {
		camera := o.scene.Camera()
		pos, target = cam.Position.R3(), cam.Target.R3()
		if cam.FrameNode != "" {
			n, err := o.scene.Find(cam.FrameNode)
			if err != nil {
				return nil, skip(err)
			}
			pos, target = camera.FramePose(o.bounds.Get(n), cam.ViewDirection.R3())
		}
		fn, _ := twin.Easing(cam.Easing)
		return camera.MoveTo(pos, target, float32(cam.Duration), fn), nil
	})
	if err != nil {
		return rec, err
	}
	rec.TargetPosition = history.Vec(pos)
	rec.Message = fmt.Sprintf("camera moved to %s looking at %s", fmtVec(pos), fmtVec(target))
	return rec, nil
}

func (o *Orchestrator) assembleCover(ctx context.Context, r *run) (history.Record, error) {
	rec := history.Record{Action: "assemble"}
	asm, err := o.cfg.Assembly(o.cfg.Service.Assembly)
	if err != nil {
		return rec, err
	}
	r.asm = asm

	var det mating.Detection
	err = o.animate(ctx, func() (twin.Animation, error) {
		target, err := o.scene.Find(asm.TargetNode)
		if err != nil {
			return nil, err
		}
		part, err := o.scene.Find(asm.PartNode)
		if err != nil {
			return nil, err
		}
		r.part = part
		r.partPosition, r.partRotation = part.Position, part.Rotation

		det, err = o.detector.DetectAndPlan(target, part, asm)
		if err != nil {
			return nil, err
		}
		if !det.Found {
			return nil, skip(det.Err())
		}
		return o.choreo.Assemble(part, det.Motion, nil), nil
	})
	if err != nil {
		return rec, err
	}

	m := det.Motion
	fillMotion(&rec, m)
	rec.Message = fmt.Sprintf("aligned %s into %s: moved %.4f along %s",
		asm.PartNode, asm.TargetNode, m.TranslationDistance, fmtVec(m.ExtractDirection))
	return rec, nil
}

// fastenerStep loosens (rotate and extract) or tightens (reverse) the named
// fastener.
func (o *Orchestrator) fastenerStep(name string, tighten bool) stepFunc {
	return func(ctx context.Context, _ *run) (history.Record, error) {
		rec := history.Record{Action: "rotateAndExtract"}
		if tighten {
			rec.Action = "reverse"
		}
		if name == "" {
			return rec, skipf("no fastener configured")
		}
		sc, err := o.cfg.Screw(name)
		if err != nil {
			return rec, err
		}

		var res fastener.Result
		err = o.animate(ctx, func() (twin.Animation, error) {
			node, err := o.scene.Find(sc.Node)
			if err != nil {
				return nil, skip(err)
			}
			var tl *twin.Timeline
			if tighten {
				tl, res = o.fasteners.StartReverse(node, sc, fastener.Options{})
			} else {
				tl, res = o.fasteners.Start(node, sc, fastener.Options{})
			}
			return tl, nil
		})
		if err != nil {
			return rec, err
		}

		rec.RotationAngle = history.Float(res.RotationAngle)
		rec.RotationAxis = history.Vec(res.RotationAxis)
		rec.ExtractDirection = history.Vec(res.ExtractDirection)
		rec.TranslationDistance = history.Float(res.Distance)
		rec.Duration = history.Float(res.Duration)
		rec.Easing = history.String(res.Easing)
		rec.OriginalPosition = history.Vec(res.OriginalPosition)
		rec.TargetPosition = history.Vec(res.TargetPosition)
		verb := "loosened"
		if tighten {
			verb = "tightened"
		}
		rec.Message = fmt.Sprintf("%s %s: %.0f° and %.4f", verb, sc.Node, res.RotationAngle, res.Distance)
		return rec, nil
	}
}

func (o *Orchestrator) translateBody(ctx context.Context, r *run) (history.Record, error) {
	rec := history.Record{Action: "translate"}
	if o.cfg.Service.Body == "" {
		return rec, skipf("no body configured")
	}
	lc, err := o.cfg.LinearMovement(o.cfg.Service.Body)
	if err != nil {
		return rec, err
	}
	// the body is structural: a missing node aborts
	m, err := o.translate(ctx, lc, lc.Node, false)
	if err != nil {
		return rec, err
	}
	r.bodyMoved = true
	r.bodyDir, r.bodyDistance = lc.Direction.R3(), lc.Distance
	r.bodyDuration, r.bodyEasing = lc.Duration, lc.Easing

	fillMotion(&rec, m)
	rec.Message = fmt.Sprintf("moved %s %.4f away from the hinge", lc.Node, m.TranslationDistance)
	return rec, nil
}

func (o *Orchestrator) translateFastener2(ctx context.Context, r *run) (history.Record, error) {
	rec := history.Record{Action: "translate"}
	if o.cfg.Service.Fastener2 == "" {
		return rec, skipf("no fastener configured")
	}
	sc, err := o.cfg.Screw(o.cfg.Service.Fastener2)
	if err != nil {
		return rec, err
	}

	var lc config.LinearMovementConfig
	switch {
	case o.cfg.Service.Follow != "":
		lc, err = o.cfg.LinearMovement(o.cfg.Service.Follow)
		if err != nil {
			return rec, err
		}
	case r.bodyMoved:
		lc = config.LinearMovementConfig{
			Direction: config.Vec3{r.bodyDir.X, r.bodyDir.Y, r.bodyDir.Z},
			Distance:  r.bodyDistance,
			Duration:  r.bodyDuration,
			Easing:    r.bodyEasing,
		}
	default:
		return rec, skipf("body did not move")
	}

	m, err := o.translate(ctx, lc, sc.Node, true)
	if err != nil {
		return rec, err
	}
	fillMotion(&rec, m)
	rec.Message = fmt.Sprintf("moved %s %.4f with the body", sc.Node, m.TranslationDistance)
	return rec, nil
}

// translate moves node along a linear movement. With optional set a missing
// node skips the step instead of aborting.
func (o *Orchestrator) translate(ctx context.Context, lc config.LinearMovementConfig, node string, optional bool) (mating.MotionResult, error) {
	var m mating.MotionResult
	err := o.animate(ctx, func() (twin.Animation, error) {
		n, err := o.scene.Find(node)
		if err != nil {
			if optional {
				return nil, skip(err)
			}
			return nil, err
		}
		var tl *twin.Timeline
		tl, m = o.choreo.Translate(n, lc.Direction.R3(), lc.Distance, lc.Duration, lc.Easing)
		return tl, nil
	})
	return m, err
}

func (o *Orchestrator) removeHolder(ctx context.Context, r *run) (history.Record, error) {
	rec := history.Record{Action: "disassemble"}
	name := o.cfg.Service.HolderNode
	if name == "" {
		return rec, skipf("no holder configured")
	}

	var (
		res   mating.MotionResult
		hinge r3.Vec
	)
	err := o.animate(ctx, func() (twin.Animation, error) {
		holder, err := o.scene.Find(name)
		if err != nil {
			return nil, skip(err)
		}
		target, err := o.scene.Find(r.asm.TargetNode)
		if err != nil {
			return nil, err
		}
		holes, err := o.detector.HoleClusters(target, r.asm)
		if err != nil {
			return nil, err
		}
		var snapped bool
		hinge, snapped = choreo.HingePoint(holes, o.bounds.Get(holder), holder.WorldPosition())
		if !snapped {
			o.logger.Warn("no hole cluster for hinge, using bounds face", zap.String("node", name))
		}
		ch := o.choreo.Disassemble(holder, choreo.ParamsFromConfig(r.asm.Disassembly), hinge)
		res = ch.Result()
		return ch, nil
	})
	if err != nil {
		return rec, err
	}

	fillMotion(&rec, res)
	rec.RotationAngle = history.Float(res.RotationAngle)
	rec.RotationAxis = history.Vec(res.RotationAxis)
	rec.Message = fmt.Sprintf("removed %s: tilted %.1f° about %s, slid %.4f, faded out",
		name, res.RotationAngle, fmtVec(hinge), r.asm.Disassembly.SlideDistance)
	return rec, nil
}

func (o *Orchestrator) restoreCover(ctx context.Context, r *run) (history.Record, error) {
	rec := history.Record{Action: "restore"}
	if r.part == nil {
		return rec, skipf("cover was never moved")
	}
	svc := o.cfg.Service
	var from r3.Vec
	err := o.animate(ctx, func() (twin.Animation, error) {
		if r.part.IsDisposed() {
			return nil, fmt.Errorf("%w: %q disposed", twin.ErrNotFound, r.part.Name)
		}
		from = r.part.Position
		return o.choreo.Restore(r.part, r.partPosition, r.partRotation, svc.RestoreDuration, svc.RestoreEasing), nil
	})
	if err != nil {
		return rec, err
	}
	rec.OriginalPosition = history.Vec(from)
	rec.TargetPosition = history.Vec(r.partPosition)
	rec.Duration = history.Float(svc.RestoreDuration)
	rec.Easing = history.String(svc.RestoreEasing)
	rec.TranslationDistance = history.Float(r3.Norm(r3.Sub(r.partPosition, from)))
	rec.Message = fmt.Sprintf("restored %s to %s", r.asm.PartNode, fmtVec(r.partPosition))
	return rec, nil
}

func fillMotion(rec *history.Record, m mating.MotionResult) {
	rec.TargetPosition = history.Vec(m.TargetPosition)
	rec.OriginalPosition = history.Vec(m.OriginalPosition)
	rec.Duration = history.Float(m.Duration)
	rec.Easing = history.String(m.Easing)
	rec.TranslationDistance = history.Float(m.TranslationDistance)
	rec.ExtractDirection = history.Vec(m.ExtractDirection)
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
