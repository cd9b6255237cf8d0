package service

import (
	"context"
	"fmt"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/history"
	"go.uber.org/zap"
)

// Intent actions.
const (
	ActionOpen            = "open"
	ActionClose           = "close"
	ActionAssembleService = "assembleService"
)

// Intent is a resolved operator command. Parsing language into an Intent
// happens elsewhere.
type Intent struct {
	Action string `yaml:"action" json:"action"`
	Door   string `yaml:"door,omitempty" json:"door,omitempty"`
	// Degrees overrides the door's default opening angle.
	Degrees *float64 `yaml:"degrees,omitempty" json:"degrees,omitempty"`
	// Speed scales animation speed; values <= 0 mean 1.
	Speed float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
}

// Dispatch executes an intent and waits for it to finish.
func (o *Orchestrator) Dispatch(ctx context.Context, in Intent) error {
	o.metrics.observeIntent(in.Action)
	o.logger.Debug("intent", zap.String("action", in.Action), zap.String("door", in.Door))
	switch in.Action {
	case ActionOpen, ActionClose:
		return o.swingDoor(ctx, in)
	case ActionAssembleService:
		_, err := o.RunDamperService(ctx)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, in.Action)
}

// swingDoor opens or closes a door relative to the rotation it had when the
// orchestrator first touched it.
func (o *Orchestrator) swingDoor(ctx context.Context, in Intent) error {
	dc, err := o.cfg.Door(in.Door)
	if err != nil {
		return err
	}
	degrees := 0.0
	if in.Action == ActionOpen {
		degrees = dc.DefaultDegrees
		if in.Degrees != nil {
			degrees = *in.Degrees
		}
	}
	duration := dc.Duration
	if in.Speed > 0 {
		duration /= in.Speed
	}

	err = o.animate(ctx, func() (twin.Animation, error) {
		node, err := o.scene.Find(dc.Node)
		if err != nil {
			return nil, err
		}
		closed, ok := o.doors[dc.Node]
		if !ok {
			closed = node.Rotation
			o.doors[dc.Node] = closed
		}
		return o.choreo.SwingDoor(node, closed, dc.Axis.R3(), degrees, duration, dc.Easing), nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", in.Action, in.Door, err)
	}

	o.history.Append(history.Record{
		Door:     in.Door,
		Action:   in.Action,
		Degrees:  history.Float(degrees),
		Duration: history.Float(duration),
		Easing:   history.String(dc.Easing),
		Message:  doorMessage(in.Action, in.Door, degrees),
	})
	return nil
}

func doorMessage(action, door string, degrees float64) string {
	if action == ActionClose {
		return fmt.Sprintf("closed %s", door)
	}
	return fmt.Sprintf("opened %s to %.0f°", door, degrees)
}
