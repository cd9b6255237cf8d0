package config

import (
	"errors"
	"fmt"
)

// Built-in defaults for fields a document leaves at zero.
const (
	DefaultTolerance       = 0.1
	DefaultClusterDistance = 0.03
	DefaultClearance       = 0.002
	DefaultDuration        = 1.0
	DefaultEasing          = "inOutQuad"
	DefaultLiftDistance    = 0.01
	DefaultSlideDistance   = 0.15
	DefaultTiltAngle       = 15.0
	DefaultStageDuration   = 0.6
	DefaultScrewAngle      = 720.0
	DefaultScrewPitch      = 0.005
	DefaultDoorDegrees     = 90.0
)

// Default returns an empty document with service-level defaults set.
func Default() *File {
	return &File{
		Assemblies: map[string]AssemblyConfig{},
		Screws:     map[string]ScrewAnimationConfig{},
		Linear:     map[string]LinearMovementConfig{},
		Doors:      map[string]DoorConfig{},
		Service: ServiceConfig{
			Camera: CameraConfig{
				ViewDirection: Vec3{0, 0, -1},
				Duration:      DefaultDuration,
				Easing:        DefaultEasing,
			},
			RestoreDuration: DefaultDuration,
			RestoreEasing:   DefaultEasing,
		},
	}
}

func (f *File) applyDefaults() {
	for name, a := range f.Assemblies {
		f.Assemblies[name] = a.withDefaults()
	}
	for name, s := range f.Screws {
		f.Screws[name] = s.withDefaults(name)
	}
	for name, l := range f.Linear {
		f.Linear[name] = l.withDefaults(name)
	}
	for name, d := range f.Doors {
		f.Doors[name] = d.withDefaults(name)
	}
	if f.Service.Camera.ViewDirection.IsZero() {
		f.Service.Camera.ViewDirection = Vec3{0, 0, -1}
	}
	if f.Service.Camera.Easing == "" {
		f.Service.Camera.Easing = DefaultEasing
	}
	if f.Service.RestoreEasing == "" {
		f.Service.RestoreEasing = DefaultEasing
	}
}

func (a AssemblyConfig) withDefaults() AssemblyConfig {
	d := &a.Detection
	if d.SearchDirection.IsZero() {
		d.SearchDirection = Vec3{0, 0, 1}
	}
	if d.Tolerance == 0 {
		d.Tolerance = DefaultTolerance
	}
	if d.ClusterDistance == 0 {
		d.ClusterDistance = DefaultClusterDistance
	}
	if a.Insertion.Clearance == 0 {
		a.Insertion.Clearance = DefaultClearance
	}
	if a.Animation.Duration == 0 {
		a.Animation.Duration = DefaultDuration
	}
	if a.Animation.Easing == "" {
		a.Animation.Easing = DefaultEasing
	}
	dis := &a.Disassembly
	if dis.LiftDistance == 0 {
		dis.LiftDistance = DefaultLiftDistance
	}
	if dis.LiftAxis.IsZero() {
		dis.LiftAxis = Vec3{0, 1, 0}
	}
	if dis.SlideDistance == 0 {
		dis.SlideDistance = DefaultSlideDistance
	}
	if dis.SlideAxis.IsZero() {
		dis.SlideAxis = Vec3{0, 0, 1}
	}
	if dis.TiltAngle == 0 {
		dis.TiltAngle = DefaultTiltAngle
	}
	if dis.TiltAxis.IsZero() {
		dis.TiltAxis = Vec3{0, 1, 0}
	}
	if dis.LiftDuration == 0 {
		dis.LiftDuration = DefaultStageDuration
	}
	if dis.SlideDuration == 0 {
		dis.SlideDuration = DefaultStageDuration
	}
	if dis.FadeDuration == 0 {
		dis.FadeDuration = DefaultStageDuration
	}
	if dis.Easing == "" {
		dis.Easing = DefaultEasing
	}
	return a
}

func (s ScrewAnimationConfig) withDefaults(name string) ScrewAnimationConfig {
	if s.Node == "" {
		s.Node = name
	}
	if s.RotationAngle == 0 {
		s.RotationAngle = DefaultScrewAngle
	}
	if s.RotationAxis.IsZero() {
		s.RotationAxis = Vec3{0, 1, 0}
	}
	if s.ExtractDirection.IsZero() {
		s.ExtractDirection = s.RotationAxis
	}
	if s.ScrewPitch == 0 {
		s.ScrewPitch = DefaultScrewPitch
	}
	if s.Duration == 0 {
		s.Duration = DefaultDuration
	}
	if s.Easing == "" {
		s.Easing = "linear"
	}
	return s
}

func (l LinearMovementConfig) withDefaults(name string) LinearMovementConfig {
	if l.Node == "" {
		l.Node = name
	}
	if l.Duration == 0 {
		l.Duration = DefaultDuration
	}
	if l.Easing == "" {
		l.Easing = DefaultEasing
	}
	return l
}

func (d DoorConfig) withDefaults(name string) DoorConfig {
	if d.Node == "" {
		d.Node = name
	}
	if d.Axis.IsZero() {
		d.Axis = Vec3{0, 1, 0}
	}
	if d.DefaultDegrees == 0 {
		d.DefaultDegrees = DefaultDoorDegrees
	}
	if d.Duration == 0 {
		d.Duration = DefaultDuration
	}
	if d.Easing == "" {
		d.Easing = DefaultEasing
	}
	return d
}

// Validate checks ranges and cross references. All problems are reported
// together.
func (f *File) Validate() error {
	var errs []error
	for name, a := range f.Assemblies {
		if a.TargetNode == "" || a.PartNode == "" {
			errs = append(errs, fmt.Errorf("assembly %q: target_node and part_node are required", name))
		}
		if t := a.Detection.Tolerance; t <= 0 || t >= 1 {
			errs = append(errs, fmt.Errorf("assembly %q: tolerance %v outside (0, 1)", name, t))
		}
		if a.Detection.ClusterDistance <= 0 {
			errs = append(errs, fmt.Errorf("assembly %q: cluster_distance must be positive", name))
		}
		if a.Insertion.Clearance < 0 {
			errs = append(errs, fmt.Errorf("assembly %q: clearance must not be negative", name))
		}
		dis := a.Disassembly
		if a.Animation.Duration < 0 || dis.LiftDuration < 0 || dis.SlideDuration < 0 || dis.FadeDuration < 0 {
			errs = append(errs, fmt.Errorf("assembly %q: durations must not be negative", name))
		}
	}
	for name, s := range f.Screws {
		if s.ScrewPitch < 0 {
			errs = append(errs, fmt.Errorf("screw %q: screw_pitch must not be negative", name))
		}
		if s.ExtractDistance != nil && *s.ExtractDistance < 0 {
			errs = append(errs, fmt.Errorf("screw %q: extract_distance must not be negative", name))
		}
		if s.Duration < 0 {
			errs = append(errs, fmt.Errorf("screw %q: duration must not be negative", name))
		}
	}
	for name, l := range f.Linear {
		if l.Direction.IsZero() && l.Distance != 0 {
			errs = append(errs, fmt.Errorf("linear %q: direction is required", name))
		}
	}
	if f.Service.StepTimeout < 0 {
		errs = append(errs, errors.New("service: step_timeout must not be negative"))
	}
	if a := f.Service.Assembly; a != "" {
		if _, ok := f.Assemblies[a]; !ok {
			errs = append(errs, fmt.Errorf("service: %w: assembly %q", ErrConfigMissing, a))
		}
	}
	return errors.Join(errs...)
}
