package board

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/pointcloud"
	"github.com/snipe75/tum-tb-perception/spatialmath"
)

// FitConfig are the parameters of a single board frame fitting attempt.
type FitConfig struct {
	// RansacIterations is the number of RANSAC iterations of the plane fit.
	RansacIterations int `json:"ransac_iterations"`
	// PlaneThreshold is the inlier distance threshold of the plane fit, in
	// the point cloud's units.
	PlaneThreshold float64 `json:"plane_threshold"`
}

// NewFitConfig returns a FitConfig with usable defaults.
func NewFitConfig() FitConfig {
	return FitConfig{RansacIterations: 500, PlaneThreshold: 0.01}
}

// CheckValid checks if the fields of FitConfig have valid inputs.
func (cfg *FitConfig) CheckValid() error {
	if cfg.RansacIterations <= 0 {
		return errors.Errorf("ransac_iterations must be positive, got %d", cfg.RansacIterations)
	}
	if cfg.PlaneThreshold <= 0 {
		return errors.Errorf("plane_threshold must be positive, got %v", cfg.PlaneThreshold)
	}
	return nil
}

// FitResult is the outcome of one board frame fitting attempt. Success is
// true only when the rectangle fit was well-conditioned and both sides were
// identified; only then does Pose carry a valid orientation.
type FitResult struct {
	Success             bool
	HorizontalSideFound bool
	VerticalSideFound   bool
	Pose                spatialmath.Pose
	Rectangle           Rectangle
	Reason              string
}

func fitFailure(reason string) FitResult {
	return FitResult{Success: false, Reason: reason}
}

// FitBoardFrame computes the board's orientation in the camera frame from its
// point cluster and the positions of the other detected objects. The
// procedure: fit a plane to the cluster, project the inliers into plane-local
// 2D coordinates, fit a minimum-area rectangle, and resolve the rectangle's
// axis ambiguity with the landmark positions. All geometric failures are
// reported through the result, never as panics.
func FitBoardFrame(
	cluster pointcloud.PointCloud,
	positions map[string]r3.Vector,
	disamb Disambiguator,
	cfg FitConfig,
	logger logging.Logger,
) FitResult {
	if cluster == nil || cluster.Size() == 0 {
		return fitFailure("board cluster is empty")
	}
	if disamb == nil {
		disamb = NewLandmarkDisambiguator()
	}

	plane, err := pointcloud.FitPlane(cluster, cfg.RansacIterations, cfg.PlaneThreshold)
	if err != nil {
		return fitFailure(errors.Wrap(err, "plane fit").Error())
	}

	center := plane.Center()
	e1, e2 := planeBasis(plane.Normal())

	inliers := plane.PointCloud()
	pts2 := make([]r2.Point, 0, inliers.Size())
	inliers.Iterate(func(pt r3.Vector) bool {
		pts2 = append(pts2, projectToPlane(pt, center, e1, e2))
		return true
	})

	rect, err := MinAreaRectangle(pts2)
	if err != nil {
		return fitFailure(errors.Wrap(err, "rectangle fit").Error())
	}

	landmarks := make(map[string]r2.Point, len(positions))
	for label, pos := range positions {
		landmarks[label] = projectToPlane(pos, center, e1, e2)
	}
	axes := disamb.Disambiguate(rect, landmarks)

	result := FitResult{
		HorizontalSideFound: axes.HorizontalFound,
		VerticalSideFound:   axes.VerticalFound,
		Rectangle:           rect,
	}
	if !axes.HorizontalFound || !axes.VerticalFound {
		result.Reason = "landmark disambiguation incomplete"
		if logger != nil {
			logger.Debugw("axis disambiguation failed",
				"horizontal_side_found", axes.HorizontalFound,
				"vertical_side_found", axes.VerticalFound)
		}
		return result
	}

	h3 := liftFromPlane(axes.Horizontal, e1, e2).Normalize()
	v3 := liftFromPlane(axes.Vertical, e1, e2).Normalize()
	n3 := h3.Cross(v3).Normalize()
	rm, err := spatialmath.NewRotationMatrixFromCols(h3, v3, n3)
	if err != nil {
		result.Reason = errors.Wrap(err, "assembling rotation").Error()
		return result
	}

	// Translation is the centroid of the whole board cluster, not just the
	// plane inliers.
	translation, _ := pointcloud.Centroid(cluster)
	result.Success = true
	result.Pose = spatialmath.NewPose(translation, rm.Quaternion())
	if logger != nil {
		logger.Debugw("board frame fit",
			"length", rect.Length, "width", rect.Width,
			"center", translation)
	}
	return result
}

// planeBasis returns an orthonormal in-plane basis for the plane with the
// given unit normal.
func planeBasis(normal r3.Vector) (r3.Vector, r3.Vector) {
	ref := r3.Vector{X: 1}
	if math.Abs(normal.X) > 0.9 {
		ref = r3.Vector{Y: 1}
	}
	e1 := ref.Sub(normal.Mul(ref.Dot(normal))).Normalize()
	e2 := normal.Cross(e1)
	return e1, e2
}

func projectToPlane(pt, center, e1, e2 r3.Vector) r2.Point {
	rel := pt.Sub(center)
	return r2.Point{X: rel.Dot(e1), Y: rel.Dot(e2)}
}

func liftFromPlane(p r2.Point, e1, e2 r3.Vector) r3.Vector {
	return e1.Mul(p.X).Add(e2.Mul(p.Y))
}
