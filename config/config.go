// Package config loads the read-only assembly, fastener and service
// configuration consumed by the mating engine and the service orchestrator.
//
// Configuration is layered: built-in defaults, then the YAML document, then
// per-entry defaults for fields the document leaves at zero. The result is
// validated once and treated as immutable for the run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// ErrConfigMissing is returned when a named configuration entry is absent.
var ErrConfigMissing = errors.New("config: entry missing")

// Vec3 is a YAML-friendly 3-vector written as a flow sequence: [x, y, z].
type Vec3 [3]float64

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v == Vec3{}
}

// File is the complete configuration document.
type File struct {
	Assemblies map[string]AssemblyConfig       `yaml:"assemblies"`
	Screws     map[string]ScrewAnimationConfig `yaml:"screws"`
	Linear     map[string]LinearMovementConfig `yaml:"linear"`
	Doors      map[string]DoorConfig           `yaml:"doors"`
	Service    ServiceConfig                   `yaml:"service"`
}

// AssemblyConfig pairs a target (the part carrying holes) with a moving part
// (the part carrying plugs) and the parameters used to detect, insert,
// animate and later remove it.
type AssemblyConfig struct {
	TargetNode  string            `yaml:"target_node"`
	PartNode    string            `yaml:"part_node"`
	Detection   DetectionConfig   `yaml:"detection"`
	Insertion   InsertionConfig   `yaml:"insertion"`
	Animation   AnimationConfig   `yaml:"animation"`
	Disassembly DisassemblyConfig `yaml:"disassembly"`
}

// DetectionConfig controls face selection and clustering.
type DetectionConfig struct {
	// SearchDirection is the world axis mating faces are parallel to.
	SearchDirection Vec3 `yaml:"search_direction"`
	// Tolerance is the axis-mode slack in (0, 1).
	Tolerance float64 `yaml:"tolerance"`
	// ClusterDistance is the greedy clustering radius.
	ClusterDistance float64 `yaml:"cluster_distance"`
	// PlugNode narrows plug detection to a sub-node of the part.
	PlugNode string `yaml:"plug_node"`
	// HoleNode narrows hole detection to a sub-node of the target.
	HoleNode string `yaml:"hole_node"`
}

// InsertionConfig shapes the insertion move computed by the planner.
type InsertionConfig struct {
	// Offset is added to the planned world target.
	Offset Vec3 `yaml:"offset"`
	// Depth pushes the target further along the insertion direction.
	Depth float64 `yaml:"depth"`
	// RotationOffset is an extra Euler rotation in degrees (XYZ order)
	// applied when the part is seated.
	RotationOffset Vec3 `yaml:"rotation_offset"`
	// Clearance is subtracted from the plug-hole distance.
	Clearance float64 `yaml:"clearance"`
}

// AnimationConfig is tween timing.
type AnimationConfig struct {
	Duration float64 `yaml:"duration"`
	Easing   string  `yaml:"easing"`
}

// DisassemblyConfig drives the tilt → slide → fade removal.
type DisassemblyConfig struct {
	LiftDistance  float64 `yaml:"lift_distance"`
	LiftAxis      Vec3    `yaml:"lift_axis"`
	SlideDistance float64 `yaml:"slide_distance"`
	SlideAxis     Vec3    `yaml:"slide_axis"`
	TiltAngle     float64 `yaml:"tilt_angle"`
	TiltAxis      Vec3    `yaml:"tilt_axis"`
	LiftDuration  float64 `yaml:"lift_duration"`
	SlideDuration float64 `yaml:"slide_duration"`
	FadeDuration  float64 `yaml:"fade_duration"`
	Easing        string  `yaml:"easing"`
}

// ScrewAnimationConfig parameterizes a fastener's combined rotate and axial
// translate.
type ScrewAnimationConfig struct {
	Node string `yaml:"node"`
	// RotationAngle is in degrees.
	RotationAngle float64 `yaml:"rotation_angle"`
	// RotationAxis is in the fastener's local frame.
	RotationAxis Vec3 `yaml:"rotation_axis"`
	// ExtractDirection is in the fastener's local frame.
	ExtractDirection Vec3 `yaml:"extract_direction"`
	// ExtractDistance, when set, wins over the pitch approximation.
	ExtractDistance *float64 `yaml:"extract_distance"`
	ScrewPitch      float64  `yaml:"screw_pitch"`
	Duration        float64  `yaml:"duration"`
	Easing          string   `yaml:"easing"`
}

// LinearMovementConfig is a straight translation of a body part.
type LinearMovementConfig struct {
	Node string `yaml:"node"`
	// Direction is in world space.
	Direction Vec3    `yaml:"direction"`
	Distance  float64 `yaml:"distance"`
	Duration  float64 `yaml:"duration"`
	Easing    string  `yaml:"easing"`
}

// DoorConfig is a hinged door's single-axis swing.
type DoorConfig struct {
	Node string `yaml:"node"`
	// Axis is the hinge axis in the door's parent frame.
	Axis           Vec3    `yaml:"axis"`
	DefaultDegrees float64 `yaml:"default_degrees"`
	Duration       float64 `yaml:"duration"`
	Easing         string  `yaml:"easing"`
}

// CameraConfig is the framing move that opens the service procedure.
type CameraConfig struct {
	// Position and Target, when both set, are used verbatim; otherwise the
	// camera frames FrameNode looking along ViewDirection.
	Position      Vec3    `yaml:"position"`
	Target        Vec3    `yaml:"target"`
	FrameNode     string  `yaml:"frame_node"`
	ViewDirection Vec3    `yaml:"view_direction"`
	Duration      float64 `yaml:"duration"`
	Easing        string  `yaml:"easing"`
}

// ServiceConfig names the parts the damper-service procedure operates on.
type ServiceConfig struct {
	Assembly   string       `yaml:"assembly"`
	Fastener1  string       `yaml:"fastener1"`
	Fastener2  string       `yaml:"fastener2"`
	Body       string       `yaml:"body"`
	Follow     string       `yaml:"follow"`
	HolderNode string       `yaml:"holder_node"`
	Camera     CameraConfig `yaml:"camera"`
	// RestoreDuration times the final restore of the cover.
	RestoreDuration float64 `yaml:"restore_duration"`
	RestoreEasing   string  `yaml:"restore_easing"`
	// StepTimeout bounds every step; zero waits indefinitely.
	StepTimeout time.Duration `yaml:"step_timeout"`
	// ParallelFasteners turns both fasteners of a loosen or tighten step
	// together.
	ParallelFasteners bool `yaml:"parallel_fasteners"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a YAML document over the defaults, fills per-entry defaults
// and validates the result.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Assembly returns the named assembly pairing.
func (f *File) Assembly(name string) (AssemblyConfig, error) {
	a, ok := f.Assemblies[name]
	if !ok {
		return AssemblyConfig{}, fmt.Errorf("%w: assembly %q", ErrConfigMissing, name)
	}
	return a, nil
}

// Screw returns the named fastener configuration.
func (f *File) Screw(name string) (ScrewAnimationConfig, error) {
	s, ok := f.Screws[name]
	if !ok {
		return ScrewAnimationConfig{}, fmt.Errorf("%w: screw %q", ErrConfigMissing, name)
	}
	return s, nil
}

// LinearMovement returns the named linear movement.
func (f *File) LinearMovement(name string) (LinearMovementConfig, error) {
	l, ok := f.Linear[name]
	if !ok {
		return LinearMovementConfig{}, fmt.Errorf("%w: linear movement %q", ErrConfigMissing, name)
	}
	return l, nil
}

// Door returns the named door.
func (f *File) Door(name string) (DoorConfig, error) {
	d, ok := f.Doors[name]
	if !ok {
		return DoorConfig{}, fmt.Errorf("%w: door %q", ErrConfigMissing, name)
	}
	return d, nil
}
