package twin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestTweenPositionReachesTarget(t *testing.T) {
	node := NewContainer("pos")
	node.SetPosition(r3.Vec{X: 1, Y: 2})

	tl := TweenPosition(node, r3.Vec{X: 3, Y: 2, Z: -1}, 1.0, ease.Linear)

	// Exact halves avoid float32 accumulation drift.
	tl.Update(0.5)
	assertVec(t, "halfway", node.Position, r3.Vec{X: 2, Y: 2, Z: -0.5})
	tl.Update(0.5)

	if !tl.Finished() {
		t.Fatal("expected Finished after full duration")
	}
	assertVec(t, "end", node.Position, r3.Vec{X: 3, Y: 2, Z: -1})
}

func TestTweenRotationReachesTarget(t *testing.T) {
	node := NewContainer("rot")
	to := AxisAngle(r3.Vec{Y: 1}, 1.2)
	tl := TweenRotation(node, to, 0.5, ease.InOutQuad)
	tl.Update(0.25)
	tl.Update(0.25)

	assertVec(t, "rotated", RotateVec(node.Rotation, r3.Vec{X: 1}), RotateVec(to, r3.Vec{X: 1}))
}

func TestTweenAlpha(t *testing.T) {
	node := NewContainer("alpha")
	tl := TweenAlpha(node, 0, 1, nil)
	tl.Update(0.5)
	assertNear(t, "alpha", node.Alpha, 0.5)
	tl.Update(0.5)
	assertNear(t, "alpha", node.Alpha, 0)
}

func TestTimelineProgressAndCallbacks(t *testing.T) {
	var (
		progress  []float64
		completed int
	)
	tl := NewTimeline(nil, 1, nil, nil)
	tl.OnProgress = func(p float64) { progress = append(progress, p) }
	tl.OnComplete = func() { completed++ }

	tl.Update(0.25)
	tl.Update(0.25)
	tl.Update(1)
	tl.Update(1) // no-op once finished

	want := []float64{0.25, 0.5, 1}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		assertNear(t, "progress", progress[i], want[i])
	}
	if completed != 1 {
		t.Errorf("OnComplete fired %d times, want 1", completed)
	}
	select {
	case <-tl.Done():
	default:
		t.Error("Done should be closed")
	}
}

func TestTimelineZeroDuration(t *testing.T) {
	var applied float64
	tl := NewTimeline(nil, 0, nil, func(v float64) { applied = v })
	if tl.Progress() != 0 {
		t.Errorf("Progress = %v, want 0 before first tick", tl.Progress())
	}
	tl.Update(0.016)
	if !tl.Finished() || applied != 1 {
		t.Errorf("zero-duration timeline should finish at once (applied %v)", applied)
	}
	assertNear(t, "progress", tl.Progress(), 1)
}

func TestTimelinePauseResume(t *testing.T) {
	node := NewContainer("n")
	tl := TweenPosition(node, r3.Vec{X: 1}, 1, ease.Linear)
	tl.Update(0.25)
	tl.Pause()
	tl.Update(0.5)
	if !tl.Paused() {
		t.Error("expected paused")
	}
	assertNear(t, "paused X", node.Position.X, 0.25)
	assertNear(t, "paused progress", tl.Progress(), 0.25)

	tl.Resume()
	tl.Update(0.25)
	assertNear(t, "resumed X", node.Position.X, 0.5)
}

func TestTimelineReverse(t *testing.T) {
	node := NewContainer("n")
	tl := TweenPosition(node, r3.Vec{X: 1}, 1, ease.Linear)
	tl.Update(0.5)
	tl.Reverse()
	if !tl.Reversed() {
		t.Fatal("expected reversed")
	}
	tl.Update(0.25)
	assertNear(t, "backing up", node.Position.X, 0.25)
	tl.Update(0.25)
	if !tl.Finished() {
		t.Fatal("reverse should finish at the start")
	}
	assertNear(t, "start", node.Position.X, 0)
	assertNear(t, "progress", tl.Progress(), 0)
}

func TestTimelineReverseAfterFinishRearms(t *testing.T) {
	completed := 0
	node := NewContainer("n")
	tl := TweenPosition(node, r3.Vec{X: 1}, 0.5, ease.Linear)
	tl.OnComplete = func() { completed++ }
	tl.Update(0.5)
	first := tl.Done()

	tl.Reverse()
	if tl.Finished() {
		t.Error("reverse should re-arm a finished timeline")
	}
	if tl.Done() == first {
		t.Error("Done should be a fresh channel")
	}
	tl.Update(0.25)
	tl.Update(0.25)
	if completed != 2 {
		t.Errorf("OnComplete fired %d times, want 2", completed)
	}
	assertNear(t, "back at start", node.Position.X, 0)
}

func TestTimelineDisposeInterruptsWait(t *testing.T) {
	tl := NewTimeline(nil, 1, nil, nil)
	completed := false
	tl.OnComplete = func() { completed = true }
	tl.Dispose()
	tl.Dispose() // idempotent
	tl.Update(2)

	if completed || tl.Finished() {
		t.Error("disposed timeline must not complete")
	}
	if !tl.Stopped() {
		t.Error("disposed timeline should report Stopped")
	}
	if err := tl.Wait(context.Background()); !errors.Is(err, ErrInterrupted) {
		t.Errorf("Wait = %v, want ErrInterrupted", err)
	}
}

func TestTimelineStopsWhenTargetDisposed(t *testing.T) {
	node := NewContainer("n")
	tl := TweenPosition(node, r3.Vec{X: 1}, 1, ease.Linear)
	tl.Update(0.25)
	node.Dispose()
	tl.Update(0.25)

	if !tl.Stopped() || tl.Finished() {
		t.Error("timeline should stop without finishing")
	}
	assertNear(t, "untouched", node.Position.X, 0.25)
}

func TestTimelineWaitContext(t *testing.T) {
	tl := NewTimeline(nil, 1, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want DeadlineExceeded", err)
	}
}

func TestEasingLookup(t *testing.T) {
	for _, id := range []string{"linear", "inOutQuad", "power2.inOut", "easeInOut", "outCubic"} {
		if _, ok := Easing(id); !ok {
			t.Errorf("Easing(%q) not found", id)
		}
	}
	fn, ok := Easing("bouncy")
	if ok {
		t.Error("unknown id should report false")
	}
	assertNear(t, "linear fallback", float64(fn(0.5, 0, 1, 1)), 0.5)
}
