// Package perception runs the taskboard pose estimation pipeline: it crops
// point clusters out of the latest camera inputs, reduces them to object
// positions, estimates the board's orientation with bounded retries, and
// composes per-object 6-DoF poses.
package perception

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/snipe75/tum-tb-perception/board"
	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/objectdetection"
	"github.com/snipe75/tum-tb-perception/pointcloud"
	"github.com/snipe75/tum-tb-perception/segmentation"
	"github.com/snipe75/tum-tb-perception/spatialmath"
	"github.com/snipe75/tum-tb-perception/transform"
)

// Preconditions of an estimation cycle: each latched input slot must have
// received at least one message.
var (
	ErrNoPointCloud = errors.New("no point cloud has been received")
	ErrNoDetections = errors.New("no detection batch has been received")
)

// Result is the output of one estimation cycle. Positions are always
// populated for every label whose cluster was non-empty. Poses and BoardFrame
// are only populated when OrientationValid is true, so callers can tell a
// real identity rotation apart from a failed estimate.
type Result struct {
	Positions  map[string]r3.Vector
	Poses      map[string]spatialmath.Pose
	BoardFrame *spatialmath.Pose

	OrientationValid    bool
	HorizontalSideFound bool
	VerticalSideFound   bool
	Attempts            int
}

// inputs are the process-wide latched values: the most recent point cloud,
// detection batch, and camera intrinsics. Each slot is overwritten on
// arrival, latest wins, no queuing.
type inputs struct {
	intrinsics *transform.PinholeCameraIntrinsics
	cloud      pointcloud.PointCloud
	detections []objectdetection.Detection
	fresh      bool
}

// Pipeline owns the latched inputs and runs estimation cycles over them.
type Pipeline struct {
	cfg    Config
	logger logging.Logger
	disamb board.Disambiguator

	mu     sync.Mutex
	inputs inputs
}

// NewPipeline validates the config and creates a pipeline.
func NewPipeline(cfg Config, logger logging.Logger) (*Pipeline, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline config")
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		disamb: cfg.disambiguator(),
	}, nil
}

// SetIntrinsics latches new camera intrinsics, replacing the previous ones.
func (p *Pipeline) SetIntrinsics(intrinsics *transform.PinholeCameraIntrinsics) error {
	if err := intrinsics.CheckValid(); err != nil {
		return err
	}
	p.mu.Lock()
	p.inputs.intrinsics = intrinsics
	p.mu.Unlock()
	return nil
}

// SetPointCloud latches a new point cloud frame, replacing the previous one.
func (p *Pipeline) SetPointCloud(cloud pointcloud.PointCloud) {
	p.mu.Lock()
	p.inputs.cloud = cloud
	p.mu.Unlock()
}

// SetDetections latches a new detection batch, replacing the previous one and
// marking it fresh for the background loop.
func (p *Pipeline) SetDetections(dets []objectdetection.Detection) {
	p.mu.Lock()
	p.inputs.detections = dets
	p.inputs.fresh = true
	p.mu.Unlock()
}

// snapshot copies the latched slots once, so a cycle works on a consistent
// view even while newer messages keep arriving.
func (p *Pipeline) snapshot() (inputs, error) {
	p.mu.Lock()
	snap := p.inputs
	p.inputs.fresh = false
	p.mu.Unlock()

	if snap.intrinsics == nil {
		return inputs{}, transform.ErrNoIntrinsics
	}
	if snap.cloud == nil {
		return inputs{}, ErrNoPointCloud
	}
	if snap.detections == nil {
		return inputs{}, ErrNoDetections
	}
	return snap, nil
}

// hasFreshDetections reports whether a detection batch arrived since the
// last cycle consumed one.
func (p *Pipeline) hasFreshDetections() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputs.fresh
}

// EstimateOnce runs one full estimation cycle. Orientation fitting is
// attempted up to NumRetries times, each attempt on a fresh snapshot of the
// latched inputs; when every attempt fails the cycle still yields positions,
// just no orientation. An error is returned only for missing preconditions
// or an empty crop, never for geometric failures.
func (p *Pipeline) EstimateOnce(ctx context.Context) (Result, error) {
	var positions map[string]r3.Vector
	var lastFit board.FitResult
	attempts := 0

	for attempts < p.cfg.NumRetries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		attempts++

		snap, err := p.snapshot()
		if err != nil {
			return Result{}, err
		}
		clusters, err := segmentation.ClustersFromDetections(
			snap.intrinsics, snap.cloud, snap.detections, p.cfg.clusterConfig(), p.logger)
		if err != nil {
			return Result{}, err
		}
		positions = estimatePositions(clusters)

		boardCluster, ok := clusters[p.cfg.BoardLabel]
		if !ok {
			lastFit = board.FitResult{Reason: "board cluster is empty"}
			p.logger.Debugw("orientation attempt failed", "attempt", attempts, "reason", lastFit.Reason)
			continue
		}

		landmarks := make(map[string]r3.Vector, len(positions))
		for label, pos := range positions {
			if label == p.cfg.BoardLabel {
				continue
			}
			landmarks[label] = pos
		}

		lastFit = board.FitBoardFrame(boardCluster, landmarks, p.disamb, p.cfg.fitConfig(), p.logger)
		if lastFit.Success {
			break
		}
		p.logger.Debugw("orientation attempt failed", "attempt", attempts, "reason", lastFit.Reason)
	}

	result := composeResult(positions, lastFit)
	result.Attempts = attempts
	if !result.OrientationValid {
		p.logger.Warnw("orientation estimation failed, publishing positions only",
			"attempts", attempts, "reason", lastFit.Reason)
	}
	return result, nil
}

// estimatePositions reduces each cluster to its centroid. Empty clusters
// cannot occur here; the cropper omits them.
func estimatePositions(clusters map[string]pointcloud.PointCloud) map[string]r3.Vector {
	positions := make(map[string]r3.Vector, len(clusters))
	for label, cluster := range clusters {
		if center, ok := pointcloud.Centroid(cluster); ok {
			positions[label] = center
		}
	}
	return positions
}

// composeResult combines the position map with the board fit. Every object
// pose shares the board's orientation; only positions differ.
func composeResult(positions map[string]r3.Vector, fit board.FitResult) Result {
	result := Result{
		Positions:           positions,
		HorizontalSideFound: fit.HorizontalSideFound,
		VerticalSideFound:   fit.VerticalSideFound,
	}
	if !fit.Success {
		return result
	}
	result.OrientationValid = true
	boardFrame := fit.Pose
	result.BoardFrame = &boardFrame
	result.Poses = make(map[string]spatialmath.Pose, len(positions))
	for label, pos := range positions {
		// the orientation must be bit-identical across every pose in the
		// cycle, so assign it without renormalizing
		result.Poses[label] = spatialmath.Pose{Point: pos, Orientation: boardFrame.Orientation}
	}
	return result
}
