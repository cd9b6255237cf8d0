package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/fastener"
	"github.com/phanxgames/twin/history"
	"gopkg.in/yaml.v3"
)

// Script actions on top of the intent actions.
const (
	ActionWait       = "wait"
	ActionLoosen     = "loosen"
	ActionTighten    = "tighten"
	ActionScreenshot = "screenshot"
)

// ScriptStep is one entry of an intent script.
type ScriptStep struct {
	Intent `yaml:",inline"`
	// Seconds is the scene time a wait step lasts.
	Seconds float64 `yaml:"seconds,omitempty"`
	// Fastener names the screw configuration of a loosen or tighten step.
	Fastener string `yaml:"fastener,omitempty"`
	// Label names the file of a screenshot step.
	Label string `yaml:"label,omitempty"`
}

// Script is an ordered list of intents, executed one after another against
// the running scene. It drives demos and end-to-end checks.
type Script struct {
	Steps []ScriptStep `yaml:"steps"`
}

// LoadScript parses a YAML intent script.
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	return &s, nil
}

// RunScript executes every step in order and stops at the first error.
func (o *Orchestrator) RunScript(ctx context.Context, s *Script) error {
	for i, st := range s.Steps {
		if err := o.runScriptStep(ctx, st); err != nil {
			return fmt.Errorf("script step %d (%s): %w", i, st.Action, err)
		}
	}
	return nil
}

func (o *Orchestrator) runScriptStep(ctx context.Context, st ScriptStep) error {
	switch st.Action {
	case ActionWait:
		// waits count scene time, so a paused or slow scene stretches them
		return o.animate(ctx, func() (twin.Animation, error) {
			tl := twin.NewTimeline(nil, float32(st.Seconds), nil, nil)
			o.scene.Play(tl)
			return tl, nil
		})
	case ActionLoosen, ActionTighten:
		return o.turnFastener(ctx, st)
	case ActionScreenshot:
		return o.scene.Call(ctx, func() error {
			o.scene.Screenshot(st.Label)
			return nil
		})
	}
	return o.Dispatch(ctx, st.Intent)
}

func (o *Orchestrator) turnFastener(ctx context.Context, st ScriptStep) error {
	sc, err := o.cfg.Screw(st.Fastener)
	if err != nil {
		return err
	}
	opts := fastener.Options{}
	if st.Speed > 0 {
		opts.Duration = sc.Duration / st.Speed
	}
	var res fastener.Result
	if st.Action == ActionTighten {
		res, err = o.fasteners.Reverse(ctx, sc.Node, sc, opts)
	} else {
		res, err = o.fasteners.RotateAndExtract(ctx, sc.Node, sc, opts)
	}
	if err != nil {
		return err
	}
	o.history.Append(history.Record{
		Action:              st.Action,
		RotationAngle:       history.Float(res.RotationAngle),
		RotationAxis:        history.Vec(res.RotationAxis),
		ExtractDirection:    history.Vec(res.ExtractDirection),
		TranslationDistance: history.Float(res.Distance),
		Duration:            history.Float(res.Duration),
		Easing:              history.String(res.Easing),
		OriginalPosition:    history.Vec(res.OriginalPosition),
		TargetPosition:      history.Vec(res.TargetPosition),
		Message:             fmt.Sprintf("%s %s", st.Action, sc.Node),
	})
	return nil
}
