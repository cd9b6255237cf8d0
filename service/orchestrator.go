// Package service sequences the damper-service procedure on a scene and
// dispatches operator intents (door open/close, service runs).
//
// The orchestrator runs on the caller's goroutine and reaches the scene only
// through twin.Scene.Call, so the goroutine that ticks the scene stays its
// single mutator. Each step is awaited before the next starts.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/choreo"
	"github.com/phanxgames/twin/config"
	"github.com/phanxgames/twin/fastener"
	"github.com/phanxgames/twin/history"
	"github.com/phanxgames/twin/mating"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
)

var (
	// ErrAborted wraps the error that stopped a sequence. The scene is left
	// as the last successful step produced it.
	ErrAborted = errors.New("service: sequence aborted")
	// ErrBusy is returned when a service run is already in progress.
	ErrBusy = errors.New("service: already running")
	// ErrUnknownAction is returned for intents this core does not handle.
	ErrUnknownAction = errors.New("service: unknown action")
)

// abandonTimeout bounds the deferred disposal of an animation whose waiter
// gave up.
const abandonTimeout = time.Second

// Orchestrator owns the services one damper-service run needs and the
// handles of every animation it has in flight.
type Orchestrator struct {
	scene   *twin.Scene
	cfg     *config.File
	logger  *zap.Logger
	history *history.Log
	metrics *Metrics

	detector  *mating.Detector
	choreo    *choreo.Choreographer
	fasteners *fastener.Service

	// bounds and doors are touched on the tick goroutine only.
	bounds *twin.BoundsCache
	doors  map[string]quat.Number

	running atomic.Bool

	mu     sync.Mutex
	active map[twin.Animation]struct{}
	cancel context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithHistory shares a history log, for example with a presentation layer.
func WithHistory(h *history.Log) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithMetrics records step metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator for scene using cfg, which is treated as
// read-only for the orchestrator's lifetime.
func New(scene *twin.Scene, cfg *config.File, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scene:  scene,
		cfg:    cfg,
		bounds: twin.NewBoundsCache(),
		doors:  make(map[string]quat.Number),
		active: make(map[twin.Animation]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.history == nil {
		o.history = history.NewLog(o.logger)
	}
	o.detector = mating.NewDetector(o.logger)
	o.choreo = choreo.New(scene, o.logger)
	o.fasteners = fastener.New(scene, o.logger)
	o.logger = o.logger.With(zap.String("component", "service"))
	return o
}

// History returns the orchestrator's audit log.
func (o *Orchestrator) History() *history.Log {
	return o.history
}

// Running reports whether a service run or any animation it started is
// active.
func (o *Orchestrator) Running() bool {
	if o.running.Load() {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active) > 0
}

// Pause freezes every animation the orchestrator has in flight.
func (o *Orchestrator) Pause(ctx context.Context) error {
	return o.scene.Call(ctx, func() error {
		for _, a := range o.activeAnimations() {
			a.Pause()
		}
		return nil
	})
}

// Resume continues paused animations from their frozen fraction.
func (o *Orchestrator) Resume(ctx context.Context) error {
	return o.scene.Call(ctx, func() error {
		for _, a := range o.activeAnimations() {
			a.Resume()
		}
		return nil
	})
}

// Dispose cancels the current run, stops every animation in flight and
// clears the bounds cache. Disposed animations never complete.
func (o *Orchestrator) Dispose(ctx context.Context) error {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Unlock()
	return o.scene.Call(ctx, func() error {
		for _, a := range o.activeAnimations() {
			a.Dispose()
		}
		o.bounds.Clear()
		return nil
	})
}

func (o *Orchestrator) activeAnimations() []twin.Animation {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]twin.Animation, 0, len(o.active))
	for a := range o.active {
		out = append(out, a)
	}
	return out
}

func (o *Orchestrator) track(a twin.Animation) {
	o.mu.Lock()
	o.active[a] = struct{}{}
	o.mu.Unlock()
}

func (o *Orchestrator) untrack(a twin.Animation) {
	o.mu.Lock()
	delete(o.active, a)
	o.mu.Unlock()
}

// animate runs start on the tick goroutine and waits for the animation it
// returns. A nil animation means there was nothing to wait for.
func (o *Orchestrator) animate(ctx context.Context, start func() (twin.Animation, error)) error {
	var a twin.Animation
	err := o.scene.Call(ctx, func() error {
		var err error
		a, err = start()
		if err == nil && a != nil {
			o.track(a)
		}
		return err
	})
	if a == nil {
		return err
	}
	defer o.untrack(a)
	if err != nil {
		o.abandon(a)
		return err
	}
	if err := a.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			o.abandon(a)
		}
		return err
	}
	return nil
}

// abandon disposes an animation nobody waits for any more.
func (o *Orchestrator) abandon(a twin.Animation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), abandonTimeout)
		defer cancel()
		_ = o.scene.Call(ctx, func() error {
			a.Dispose()
			return nil
		})
	}()
}

// skipError marks a step that produced no result. The sequence logs it and
// moves on.
type skipError struct {
	reason error
}

func (e *skipError) Error() string { return "skipped: " + e.reason.Error() }

func (e *skipError) Unwrap() error { return e.reason }

func skip(reason error) error {
	return &skipError{reason: reason}
}

func skipf(format string, args ...any) error {
	return skip(fmt.Errorf(format, args...))
}

// stepContext applies the configured step timeout.
func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := o.cfg.Service.StepTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// runStep executes one step and returns the record it produced, skipped
// or not. The caller appends it to the history. Only an abort is returned
// as an error.
func (o *Orchestrator) runStep(ctx context.Context, r *run, step Step, fn stepFunc) (history.Record, error) {
	sctx, cancel := o.stepContext(ctx)
	defer cancel()

	start := time.Now()
	rec, err := fn(sctx, r)
	elapsed := time.Since(start)
	rec.RunID = r.id
	rec.Step = string(step)

	var sk *skipError
	switch {
	case errors.As(err, &sk):
		rec.Skipped = true
		rec.Message = fmt.Sprintf("%s skipped: %v", step, sk.reason)
		o.metrics.observeStep(step, outcomeSkipped, elapsed)
		return rec, nil
	case err != nil:
		o.metrics.observeStep(step, outcomeFailed, elapsed)
		o.logger.Error("step failed",
			zap.String("run_id", r.id),
			zap.String("step", string(step)),
			zap.Error(err))
		return rec, fmt.Errorf("%w: %s: %w", ErrAborted, step, err)
	}
	o.metrics.observeStep(step, outcomeOK, elapsed)
	return rec, nil
}

// newRunID returns the identifier stamped on a run's history records.
func newRunID() string {
	return uuid.NewString()
}
