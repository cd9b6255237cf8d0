package twin

import (
	"context"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// sceneCall is a unit of work queued by another goroutine to run on the
// tick goroutine.
type sceneCall struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// Scene is the top-level object that owns the node tree, the camera, the
// set of running animations and the queue of deferred calls.
//
// A Scene has exactly one mutator: the goroutine that calls Tick (or Update
// under ebiten). Other goroutines reach the tree through Call.
type Scene struct {
	root   *Node
	camera *Camera
	logger *zap.Logger
	debug  bool

	// ClearColor fills the screen before Draw renders wireframes.
	ClearColor Color
	// Status is drawn as an overlay line by Draw.
	Status string
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string

	animations      []Animation
	screenshotQueue []string

	callMu sync.Mutex
	calls  []*sceneCall
	ticks  uint64
}

// NewScene creates a new scene with a pre-created root container and a
// default camera. A nil logger is replaced with a no-op logger.
func NewScene(logger *zap.Logger) *Scene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scene{
		root:          NewContainer("root"),
		camera:        NewCamera(),
		logger:        logger,
		ClearColor:    Color{R: 0.08, G: 0.08, B: 0.1, A: 1},
		ScreenshotDir: "screenshots",
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Logger returns the scene logger.
func (s *Scene) Logger() *zap.Logger {
	return s.logger
}

// SetDebugMode enables or disables debug mode. When enabled, each tick checks
// tree depth and child counts and logs warnings.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// Find resolves a node name to a node at the loader boundary.
func (s *Scene) Find(name string) (*Node, error) {
	n := FindNodeByName(s.root, name)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return n, nil
}

// Lookup resolves a node handle.
func (s *Scene) Lookup(id NodeID) (*Node, error) {
	n := FindNodeByID(s.root, id)
	if n == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return n, nil
}

// Play registers an animation so Tick advances it. The scene drops it once it
// has stopped.
func (s *Scene) Play(a Animation) {
	s.animations = append(s.animations, a)
}

// Animating reports whether any registered animation is still running.
func (s *Scene) Animating() bool {
	for _, a := range s.animations {
		if !a.Stopped() {
			return true
		}
	}
	return false
}

// Ticks returns the number of ticks processed so far.
func (s *Scene) Ticks() uint64 {
	return s.ticks
}

// Call queues fn to run on the tick goroutine at the start of the next Tick
// and blocks until it has run, returning its error. If ctx expires before the
// tick goroutine takes fn, fn never runs and Call returns ctx.Err(). Once fn
// has started, Call returns its result.
func (s *Scene) Call(ctx context.Context, fn func() error) error {
	c := &sceneCall{ctx: ctx, fn: fn, result: make(chan error, 1)}
	s.callMu.Lock()
	s.calls = append(s.calls, c)
	s.callMu.Unlock()
	select {
	case err := <-c.result:
		return err
	case <-ctx.Done():
	}
	if s.withdraw(c) {
		return ctx.Err()
	}
	// Tick already took the call and answers it without blocking on the
	// scene: it either runs fn or reports the expired context.
	return <-c.result
}

// withdraw removes c from the queue. It reports false when Tick has already
// taken it.
func (s *Scene) withdraw(c *sceneCall) bool {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	for i, q := range s.calls {
		if q == c {
			s.calls = append(s.calls[:i], s.calls[i+1:]...)
			return true
		}
	}
	return false
}

// Update advances the scene by one ebiten tick.
func (s *Scene) Update() {
	s.Tick(float32(1.0 / float64(ebiten.TPS())))
}

// Tick runs queued calls, then advances the camera and every registered
// animation by dt seconds, in registration order.
func (s *Scene) Tick(dt float32) {
	s.ticks++

	s.callMu.Lock()
	pending := s.calls
	s.calls = nil
	s.callMu.Unlock()
	for _, c := range pending {
		if err := c.ctx.Err(); err != nil {
			c.result <- err
			continue
		}
		c.result <- c.fn()
	}

	s.camera.update(dt)

	// Animations started by callbacks during this loop join on the next tick.
	running := s.animations
	s.animations = nil
	for _, a := range running {
		a.Update(dt)
	}
	kept := running[:0]
	for _, a := range running {
		if !a.Stopped() {
			kept = append(kept, a)
		}
	}
	s.animations = append(kept, s.animations...)

	if s.debug {
		s.debugCheckTree()
	}
}
