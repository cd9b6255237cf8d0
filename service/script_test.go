package service

import (
	"testing"

	"github.com/phanxgames/twin/fridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScript(t *testing.T) {
	s, err := LoadScript([]byte(`
steps:
  - action: open
    door: door_left
    degrees: -80
    speed: 2
  - action: wait
    seconds: 0.25
  - action: loosen
    fastener: screw1
`))
	require.NoError(t, err)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, ActionOpen, s.Steps[0].Action)
	assert.Equal(t, fridge.LeftDoor, s.Steps[0].Door)
	require.NotNil(t, s.Steps[0].Degrees)
	assert.Equal(t, -80.0, *s.Steps[0].Degrees)
	assert.Equal(t, 2.0, s.Steps[0].Speed)
	assert.Equal(t, 0.25, s.Steps[1].Seconds)
	assert.Equal(t, "screw1", s.Steps[2].Fastener)
}

func TestLoadScriptInvalid(t *testing.T) {
	_, err := LoadScript([]byte("steps: [oops"))
	assert.Error(t, err)

	_, err = LoadScript([]byte("steps: []"))
	assert.Error(t, err)
}

func TestRunScript(t *testing.T) {
	f := newFixture(t, nil)
	screwStart := f.node(fridge.Screw1).Position
	stop := drive(t, f.scene)

	s, err := LoadScript([]byte(`
steps:
  - action: open
    door: door_left
  - action: wait
    seconds: 0.05
  - action: loosen
    fastener: screw1
  - action: tighten
    fastener: screw1
    speed: 2
  - action: close
    door: door_left
`))
	require.NoError(t, err)
	require.NoError(t, f.orch.RunScript(testContext(t), s))
	stop()

	recs := f.orch.History().Records()
	require.Len(t, recs, 4)
	assert.Equal(t, []string{ActionOpen, ActionLoosen, ActionTighten, ActionClose},
		[]string{recs[0].Action, recs[1].Action, recs[2].Action, recs[3].Action})
	assert.InDelta(t, 0.025, *recs[2].Duration, 1e-12)
	assertVecNear(t, screwStart, f.node(fridge.Screw1).Position, 1e-9)
}

func TestRunScriptStopsAtFirstError(t *testing.T) {
	f := newFixture(t, nil)
	drive(t, f.scene)

	s := &Script{Steps: []ScriptStep{
		{Intent: Intent{Action: ActionLoosen}, Fastener: "screw7"},
		{Intent: Intent{Action: ActionOpen, Door: fridge.LeftDoor}},
	}}
	err := f.orch.RunScript(testContext(t), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script step 0 (loosen)")
	assert.Zero(t, f.orch.History().Len())
}

func TestRunScriptScreenshotQueuesCapture(t *testing.T) {
	f := newFixture(t, nil)
	stop := drive(t, f.scene)

	s, err := LoadScript([]byte(`
steps:
  - action: screenshot
    label: before
  - action: open
    door: door_right
`))
	require.NoError(t, err)
	require.NoError(t, f.orch.RunScript(testContext(t), s))
	stop()

	// nothing draws in headless tests, so the capture stays queued
	assert.Equal(t, []string{"before"}, f.scene.PendingScreenshots())
	assert.Equal(t, 1, f.orch.History().Len())
}
