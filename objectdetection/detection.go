// Package objectdetection defines the detection types produced by the
// external CNN detector and consumed by the perception pipeline.
package objectdetection

import (
	"fmt"

	"github.com/pkg/errors"
)

// Box is an axis-aligned 2D bounding box in pixel coordinates. Bounds are
// inclusive on all four edges.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// ContainsPixel reports whether the pixel (u, v) falls within the box,
// boundary included.
func (b Box) ContainsPixel(u, v float64) bool {
	return u >= b.XMin && u <= b.XMax && v >= b.YMin && v <= b.YMax
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	out := b
	if other.XMin < out.XMin {
		out.XMin = other.XMin
	}
	if other.YMin < out.YMin {
		out.YMin = other.YMin
	}
	if other.XMax > out.XMax {
		out.XMax = other.XMax
	}
	if other.YMax > out.YMax {
		out.YMax = other.YMax
	}
	return out
}

// Detection returns a bounding box around the object and a confidence score of
// the detection, together with the detected class label.
type Detection interface {
	Box() Box
	Score() float64
	Label() string
}

// NewDetection creates a simple 2D detection.
func NewDetection(label string, box Box, score float64) (Detection, error) {
	if score < 0 || score > 1 {
		return nil, errors.Errorf("detection score must be in [0, 1], got %v", score)
	}
	if box.XMin > box.XMax || box.YMin > box.YMax {
		return nil, errors.Errorf("invalid bounding box for label %q: %+v", label, box)
	}
	return &detection2D{label: label, box: box, score: score}, nil
}

type detection2D struct {
	label string
	box   Box
	score float64
}

func (d *detection2D) Box() Box {
	return d.box
}

func (d *detection2D) Score() float64 {
	return d.score
}

func (d *detection2D) Label() string {
	return d.label
}

func (d *detection2D) String() string {
	return fmt.Sprintf("Label: %s, Score: %.2f, Box: %+v", d.label, d.score, d.box)
}

// FilterByScore returns the detections whose confidence is at least minScore.
func FilterByScore(dets []Detection, minScore float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score() >= minScore {
			out = append(out, d)
		}
	}
	return out
}
