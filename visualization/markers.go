package visualization

import (
	"sort"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/perception"
	"github.com/snipe75/tum-tb-perception/spatialmath"
)

// Marker is one displayable pose estimate.
type Marker struct {
	ID    int
	Label string
	Pose  spatialmath.Pose
	Color Color
	// HasOrientation is false when the cycle produced no valid orientation
	// and the marker's rotation is a display-only identity.
	HasOrientation bool
}

// MarkerSet generates markers from estimation results. It owns the marker ID
// counter; IDs restart from zero on every publish cycle so downstream
// displays replace the previous cycle's markers.
type MarkerSet struct {
	nextID int
}

// Build converts one estimation result into markers, one per detected label,
// in stable label order.
func (ms *MarkerSet) Build(result perception.Result, colors ClassColorMap, logger logging.Logger) []Marker {
	ms.nextID = 0

	labels := make([]string, 0, len(result.Positions))
	for label := range result.Positions {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	markers := make([]Marker, 0, len(labels))
	for _, label := range labels {
		marker := Marker{
			ID:    ms.nextID,
			Label: label,
			Color: colors.Color(label, logger),
		}
		ms.nextID++
		if result.OrientationValid {
			marker.Pose = result.Poses[label]
			marker.HasOrientation = true
		} else {
			marker.Pose = spatialmath.NewPoseFromPoint(result.Positions[label])
		}
		markers = append(markers, marker)
	}
	return markers
}
