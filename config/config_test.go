package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const minimalYAML = `
assemblies:
  cover:
    target_node: housing
    part_node: cover
screws:
  screw1:
    extract_distance: 0.02
linear:
  flap:
    direction: [1, 0, 0]
    distance: 0.03
doors:
  door_left:
    default_degrees: -100
service:
  assembly: cover
  step_timeout: 2s
  parallel_fasteners: true
`

func TestParseAppliesDefaults(t *testing.T) {
	f, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	a, err := f.Assembly("cover")
	require.NoError(t, err)
	assert.Equal(t, Vec3{0, 0, 1}, a.Detection.SearchDirection)
	assert.Equal(t, DefaultTolerance, a.Detection.Tolerance)
	assert.Equal(t, DefaultClusterDistance, a.Detection.ClusterDistance)
	assert.Equal(t, DefaultClearance, a.Insertion.Clearance)
	assert.Equal(t, DefaultDuration, a.Animation.Duration)
	assert.Equal(t, DefaultEasing, a.Animation.Easing)
	assert.Equal(t, DefaultTiltAngle, a.Disassembly.TiltAngle)
	assert.Equal(t, Vec3{0, 1, 0}, a.Disassembly.LiftAxis)

	s, err := f.Screw("screw1")
	require.NoError(t, err)
	assert.Equal(t, "screw1", s.Node)
	assert.Equal(t, DefaultScrewAngle, s.RotationAngle)
	assert.Equal(t, s.RotationAxis, s.ExtractDirection)
	require.NotNil(t, s.ExtractDistance)
	assert.Equal(t, 0.02, *s.ExtractDistance)
	assert.Equal(t, "linear", s.Easing)

	l, err := f.LinearMovement("flap")
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1}, l.Direction.R3())
	assert.Equal(t, "flap", l.Node)

	d, err := f.Door("door_left")
	require.NoError(t, err)
	assert.Equal(t, -100.0, d.DefaultDegrees)
	assert.Equal(t, Vec3{0, 1, 0}, d.Axis)

	assert.Equal(t, 2*time.Second, f.Service.StepTimeout)
	assert.True(t, f.Service.ParallelFasteners)
	assert.Equal(t, Vec3{0, 0, -1}, f.Service.Camera.ViewDirection)
	assert.Equal(t, DefaultDuration, f.Service.RestoreDuration)
}

func TestMissingEntries(t *testing.T) {
	f := Default()

	_, err := f.Assembly("cover")
	assert.ErrorIs(t, err, ErrConfigMissing)
	_, err = f.Screw("screw1")
	assert.ErrorIs(t, err, ErrConfigMissing)
	_, err = f.LinearMovement("flap")
	assert.ErrorIs(t, err, ErrConfigMissing)
	_, err = f.Door("door_left")
	assert.ErrorIs(t, err, ErrConfigMissing)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing nodes",
			yaml: "assemblies:\n  a:\n    part_node: p\n",
			want: "target_node and part_node are required",
		},
		{
			name: "tolerance out of range",
			yaml: "assemblies:\n  a:\n    target_node: t\n    part_node: p\n    detection:\n      tolerance: 1.5\n",
			want: "outside (0, 1)",
		},
		{
			name: "negative clearance",
			yaml: "assemblies:\n  a:\n    target_node: t\n    part_node: p\n    insertion:\n      clearance: -0.1\n",
			want: "clearance must not be negative",
		},
		{
			name: "negative pitch",
			yaml: "screws:\n  s:\n    screw_pitch: -1\n",
			want: "screw_pitch must not be negative",
		},
		{
			name: "linear without direction",
			yaml: "linear:\n  l:\n    distance: 0.1\n",
			want: "direction is required",
		},
		{
			name: "negative timeout",
			yaml: "service:\n  step_timeout: -1s\n",
			want: "step_timeout must not be negative",
		},
		{
			name: "unknown service assembly",
			yaml: "service:\n  assembly: ghost\n",
			want: `assembly "ghost"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte("screws:\n  s:\n    screw_pitch: -1\n    duration: -2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screw_pitch")
	assert.Contains(t, err.Error(), "duration")
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("assemblies: [oops"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, f.Assemblies, "cover")

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "absent.yaml")
}
