package mating

import (
	"errors"
	"fmt"

	"github.com/phanxgames/twin"
	"github.com/phanxgames/twin/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoFeatureDetected explains an unsuccessful Detection. It is never
// returned as an error from detection itself; callers branch on
// Detection.Found.
var ErrNoFeatureDetected = errors.New("mating: no feature detected")

// Detection is the outcome of one detect-and-plan pass.
type Detection struct {
	Plugs  []Cluster
	Holes  []Cluster
	Motion MotionResult
	Found  bool
}

// Err returns ErrNoFeatureDetected when nothing was found.
func (d Detection) Err() error {
	if d.Found {
		return nil
	}
	return ErrNoFeatureDetected
}

// DetectClusters selects the faces under node aligned with dir and clusters
// their vertices. Cluster insertion directions point along dir.
func DetectClusters(node *twin.Node, dir r3.Vec, tolerance, threshold float64) []Cluster {
	sel := SelectFaces(node, dir, SelectOptions{Tolerance: &tolerance})
	return ClusterPointsAlong(sel.Samples(), threshold, dir)
}

// Detector runs feature detection and planning for configured assemblies.
type Detector struct {
	logger *zap.Logger
}

// NewDetector creates a detector. A nil logger is replaced with a no-op logger.
func NewDetector(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger.With(zap.String("component", "mating"))}
}

// DetectAndPlan finds hole clusters on target and plug clusters on part and
// plans the move that seats part. Detection failures are reported through
// Detection.Found; the error is non-nil only when a configured sub-node is
// missing.
func (d *Detector) DetectAndPlan(target, part *twin.Node, cfg config.AssemblyConfig) (Detection, error) {
	det := cfg.Detection
	holeRoot, err := subNode(target, det.HoleNode)
	if err != nil {
		return Detection{}, err
	}
	plugRoot, err := subNode(part, det.PlugNode)
	if err != nil {
		return Detection{}, err
	}

	dir := det.SearchDirection.R3()
	res := Detection{
		Holes: DetectClusters(holeRoot, dir, det.Tolerance, det.ClusterDistance),
		Plugs: DetectClusters(plugRoot, dir, det.Tolerance, det.ClusterDistance),
	}
	d.logger.Debug("clusters detected",
		zap.String("target", target.Name), zap.String("part", part.Name),
		zap.Int("holes", len(res.Holes)), zap.Int("plugs", len(res.Plugs)))

	planner := Planner{
		Clearance:       cfg.Insertion.Clearance,
		ClusterDistance: det.ClusterDistance,
		Logger:          d.logger,
	}
	motion, ok := planner.Plan(part, res.Plugs, res.Holes)
	if !ok {
		d.logger.Warn("assembly skipped", zap.String("part", part.Name), zap.Error(ErrNoFeatureDetected))
		return res, nil
	}

	motion = applyInsertion(part, motion, cfg.Insertion)
	motion.Duration = cfg.Animation.Duration
	motion.Easing = cfg.Animation.Easing
	res.Motion = motion
	res.Found = true
	return res, nil
}

// applyInsertion adds the configured world offset and extra depth along the
// insertion direction to a planned move.
func applyInsertion(part *twin.Node, m MotionResult, ins config.InsertionConfig) MotionResult {
	if ins.Offset.IsZero() && ins.Depth == 0 && ins.RotationOffset.IsZero() {
		return m
	}
	targetWorld := r3.Add(part.WorldPosition(), r3.Scale(m.TranslationDistance, m.ExtractDirection))
	targetWorld = r3.Add(targetWorld, ins.Offset.R3())
	targetWorld = r3.Add(targetWorld, r3.Scale(ins.Depth, m.ExtractDirection))
	m.TargetPosition = part.WorldToParent(targetWorld)
	m.TranslationDistance = r3.Norm(r3.Sub(targetWorld, part.WorldPosition()))
	m.RotationOffset = ins.RotationOffset.R3()
	return m
}

// HoleClusters detects only the holes on target, as used to place a hinge.
func (d *Detector) HoleClusters(target *twin.Node, cfg config.AssemblyConfig) ([]Cluster, error) {
	root, err := subNode(target, cfg.Detection.HoleNode)
	if err != nil {
		return nil, err
	}
	det := cfg.Detection
	return DetectClusters(root, det.SearchDirection.R3(), det.Tolerance, det.ClusterDistance), nil
}

func subNode(root *twin.Node, name string) (*twin.Node, error) {
	if name == "" {
		return root, nil
	}
	n := twin.FindNodeByName(root, name)
	if n == nil {
		return nil, fmt.Errorf("%w: %q under %q", twin.ErrNotFound, name, root.Name)
	}
	return n, nil
}
