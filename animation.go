package twin

import (
	"context"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Animation is the handle a caller holds for one in-flight tween or
// multi-stage choreography. Only one animation may drive a given node at a
// time; nothing enforces this, callers sequence their work.
type Animation interface {
	// Update advances the animation by dt seconds. Called once per tick.
	Update(dt float32)
	// Progress returns the fraction of the animation completed, in [0, 1].
	Progress() float64
	// Pause freezes progress until Resume.
	Pause()
	// Resume continues from the frozen fraction.
	Resume()
	// Dispose stops the animation. It never completes afterwards.
	Dispose()
	// Finished reports whether the animation ran to completion.
	Finished() bool
	// Stopped reports whether the animation completed or was disposed.
	Stopped() bool
	// Done is closed exactly once, when the animation completes.
	Done() <-chan struct{}
	// Wait blocks until completion, disposal (ErrInterrupted) or ctx expiry.
	Wait(ctx context.Context) error
}

// Timeline drives a single normalized 0→1 gween tween and hands the eased
// fraction to an apply function every tick. Create one via NewTimeline or the
// convenience constructors (TweenPosition, TweenRotation, TweenAlpha) and
// either register it with Scene.Play or call Update(dt) yourself.
type Timeline struct {
	tween    *gween.Tween
	easing   ease.TweenFunc
	duration float32
	elapsed  float32
	target   *Node
	apply    func(t float64)

	// OnProgress fires after every tick that moved the timeline, with the
	// time fraction in [0, 1].
	OnProgress func(p float64)
	// OnComplete fires exactly once per run, after the final apply.
	OnComplete func()

	paused   bool
	reversed bool
	finished bool
	disposed bool
	done     chan struct{}
	stop     chan struct{}
}

// NewTimeline creates a timeline of the given duration (seconds). apply is
// called each tick with the eased fraction; target, if non-nil, stops the
// timeline when that node is disposed. A nil easing means ease.Linear.
func NewTimeline(target *Node, duration float32, fn ease.TweenFunc, apply func(t float64)) *Timeline {
	if fn == nil {
		fn = ease.Linear
	}
	if duration < 0 {
		duration = 0
	}
	return &Timeline{
		tween:    gween.New(0, 1, duration, fn),
		easing:   fn,
		duration: duration,
		target:   target,
		apply:    apply,
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Update advances the tween by dt seconds, applies the eased value and fires
// callbacks. If the target node has been disposed the timeline is disposed
// and nothing is written.
func (tl *Timeline) Update(dt float32) {
	if tl.finished || tl.disposed || tl.paused {
		return
	}
	if tl.target != nil && tl.target.IsDisposed() {
		tl.Dispose()
		return
	}

	var (
		val      float32
		finished bool
	)
	if tl.duration == 0 {
		finished = true
	} else {
		val, finished = tl.tween.Update(dt)
	}

	if tl.reversed {
		tl.elapsed -= dt
		if finished {
			val, tl.elapsed = 0, 0
		}
	} else {
		tl.elapsed += dt
		if finished {
			val, tl.elapsed = 1, tl.duration
		}
	}
	if tl.elapsed > tl.duration {
		tl.elapsed = tl.duration
	}
	if tl.elapsed < 0 {
		tl.elapsed = 0
	}

	if tl.apply != nil {
		tl.apply(float64(val))
	}
	if tl.OnProgress != nil {
		tl.OnProgress(tl.Progress())
	}
	if finished {
		tl.finished = true
		if tl.OnComplete != nil {
			tl.OnComplete()
		}
		close(tl.done)
	}
}

// Progress returns the elapsed time fraction in [0, 1]. A reversed timeline
// counts down toward 0.
func (tl *Timeline) Progress() float64 {
	if tl.duration == 0 {
		if tl.finished != tl.reversed {
			return 1
		}
		return 0
	}
	return float64(tl.elapsed / tl.duration)
}

// Pause freezes progress.
func (tl *Timeline) Pause() { tl.paused = true }

// Resume continues from the frozen fraction.
func (tl *Timeline) Resume() { tl.paused = false }

// Paused reports whether the timeline is paused.
func (tl *Timeline) Paused() bool { return tl.paused }

// Reverse replays the timeline backward from its current position along the
// same easing curve. Reversing a finished timeline re-arms it: Done returns a
// fresh channel and OnComplete fires again when it reaches the start.
func (tl *Timeline) Reverse() {
	if tl.disposed {
		return
	}
	tl.reversed = !tl.reversed
	if tl.finished {
		tl.finished = false
		tl.done = make(chan struct{})
	}

	fn, total := tl.easing, tl.duration
	if tl.reversed {
		from := tl.elapsed
		// Value at reverse time s is the forward curve at from-s.
		tl.tween = gween.New(0, 1, from, func(t, _, _, _ float32) float32 {
			return fn(from-t, 0, 1, total)
		})
		return
	}
	from := tl.elapsed
	tl.tween = gween.New(0, 1, total-from, func(t, _, _, _ float32) float32 {
		return fn(from+t, 0, 1, total)
	})
}

// Reversed reports whether the timeline is running backward.
func (tl *Timeline) Reversed() bool { return tl.reversed }

// Dispose stops the timeline without completing it.
func (tl *Timeline) Dispose() {
	if tl.disposed {
		return
	}
	tl.disposed = true
	close(tl.stop)
}

// Finished reports whether the timeline ran to completion.
func (tl *Timeline) Finished() bool { return tl.finished }

// Stopped reports whether the timeline finished or was disposed.
func (tl *Timeline) Stopped() bool { return tl.finished || tl.disposed }

// Done is closed when the timeline completes.
func (tl *Timeline) Done() <-chan struct{} { return tl.done }

// Wait blocks until the timeline completes. It returns ErrInterrupted if the
// timeline is disposed first, or ctx.Err() if ctx expires.
func (tl *Timeline) Wait(ctx context.Context) error {
	return waitAnimation(ctx, tl.done, tl.stop)
}

func waitAnimation(ctx context.Context, done, stop <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-stop:
		select {
		case <-done:
			return nil
		default:
		}
		return ErrInterrupted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Convenience constructors ---

// TweenPosition creates a Timeline that moves node.Position to the given
// parent-local target over duration seconds.
func TweenPosition(node *Node, to r3.Vec, duration float32, fn ease.TweenFunc) *Timeline {
	from := node.Position
	return NewTimeline(node, duration, fn, func(t float64) {
		node.SetPosition(lerpVec(from, to, t))
	})
}

// TweenRotation creates a Timeline that slerps node.Rotation to the target.
func TweenRotation(node *Node, to quat.Number, duration float32, fn ease.TweenFunc) *Timeline {
	from := node.Rotation
	return NewTimeline(node, duration, fn, func(t float64) {
		node.SetRotation(Slerp(from, to, t))
	})
}

// TweenAlpha creates a Timeline that animates node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *Timeline {
	from := node.Alpha
	return NewTimeline(node, duration, fn, func(t float64) {
		node.Alpha = from + (to-from)*t
	})
}

func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// --- Easing lookup ---

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"easeInOut":    ease.InOutQuad,
	"easeIn":       ease.InQuad,
	"easeOut":      ease.OutQuad,
	"power2.inOut": ease.InOutQuad,
	"power2.out":   ease.OutQuad,
}

// Easing resolves an easing id (as written in assembly configs) to a tween
// function. Unknown or empty ids resolve to ease.Linear and ok=false.
func Easing(id string) (fn ease.TweenFunc, ok bool) {
	fn, ok = easings[id]
	if !ok {
		return ease.Linear, false
	}
	return fn, true
}
