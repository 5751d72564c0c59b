// Package segmentation crops point clouds against 2D detections, producing
// the per-label 3D clusters the pose estimators run on.
package segmentation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/objectdetection"
	"github.com/snipe75/tum-tb-perception/pointcloud"
	"github.com/snipe75/tum-tb-perception/transform"
)

// DefaultBoardLabel is the reserved label that anchors orientation estimation.
const DefaultBoardLabel = "taskboard"

// ErrEmptyPointCloud is returned when cropping is requested before any point
// cloud has arrived.
var ErrEmptyPointCloud = errors.New("point cloud is empty")

// ClusterConfig are the parameters for turning detections into point clusters.
type ClusterConfig struct {
	// BoardLabel is the label whose cluster anchors orientation estimation.
	BoardLabel string `json:"board_label"`
	// MinConfidence drops detections scored below it before cropping.
	MinConfidence float64 `json:"min_confidence"`
}

// CheckValid checks if the fields of ClusterConfig have valid inputs.
func (cfg *ClusterConfig) CheckValid() error {
	if cfg.BoardLabel == "" {
		return errors.New("board_label cannot be empty")
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return errors.Errorf("min_confidence must be between 0 and 1, got %v", cfg.MinConfidence)
	}
	return nil
}

// NewClusterConfig returns a ClusterConfig with the default board label.
func NewClusterConfig() ClusterConfig {
	return ClusterConfig{BoardLabel: DefaultBoardLabel}
}

// ClustersFromDetections projects every point of the cloud into pixel space
// with the pinhole model and assigns it to each detection box containing the
// projection, bounds inclusive. A point may land in several clusters. Labels
// whose boxes capture no points are omitted from the output. The board
// label is special: all of its boxes are merged into one outer region so the
// board cluster covers the whole board.
func ClustersFromDetections(
	intrinsics *transform.PinholeCameraIntrinsics,
	cloud pointcloud.PointCloud,
	dets []objectdetection.Detection,
	cfg ClusterConfig,
	logger logging.Logger,
) (map[string]pointcloud.PointCloud, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if err := cfg.CheckValid(); err != nil {
		return nil, err
	}
	if cloud == nil || cloud.Size() == 0 {
		return nil, ErrEmptyPointCloud
	}

	dets = objectdetection.FilterByScore(dets, cfg.MinConfidence)

	// Merge every board-labeled box into a single outer region; keep other
	// labels as one box list per label.
	type labeledBox struct {
		label string
		box   objectdetection.Box
	}
	boxes := make([]labeledBox, 0, len(dets))
	var boardBox *objectdetection.Box
	for _, d := range dets {
		if d.Label() == cfg.BoardLabel {
			if boardBox == nil {
				b := d.Box()
				boardBox = &b
			} else {
				merged := boardBox.Union(d.Box())
				boardBox = &merged
			}
			continue
		}
		boxes = append(boxes, labeledBox{d.Label(), d.Box()})
	}
	if boardBox != nil {
		boxes = append(boxes, labeledBox{cfg.BoardLabel, *boardBox})
	}

	clusters := make(map[string]pointcloud.PointCloud)
	cloud.Iterate(func(pt r3.Vector) bool {
		// behind-camera and zero-depth points never belong to a cluster,
		// even when a box extends into negative pixel coordinates
		if pt.Z <= 0 {
			return true
		}
		u, v := intrinsics.ProjectPoint(pt)
		for _, lb := range boxes {
			if !lb.box.ContainsPixel(u, v) {
				continue
			}
			cluster, ok := clusters[lb.label]
			if !ok {
				cluster = pointcloud.New()
				clusters[lb.label] = cluster
			}
			//nolint:errcheck
			cluster.Set(pt)
		}
		return true
	})

	if logger != nil {
		for label, cluster := range clusters {
			logger.Debugw("cropped cluster", "label", label, "points", cluster.Size())
		}
	}
	return clusters, nil
}
