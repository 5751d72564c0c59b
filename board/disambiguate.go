package board

import (
	"math"

	"github.com/golang/geo/r2"
)

// Default landmark labels: the red button sits on the board's horizontal
// side, the white slider center on its vertical side.
const (
	DefaultHorizontalLandmark = "red"
	DefaultVerticalLandmark   = "white_center"
)

// minAxisAgreement is the minimum |cos| between a landmark direction and a
// rectangle axis for the landmark to claim that axis.
const minAxisAgreement = 0.5

// Axes are the disambiguated in-plane directions of the board frame, in
// plane-local 2D coordinates.
type Axes struct {
	Horizontal r2.Point
	Vertical   r2.Point
	// HorizontalFound and VerticalFound report whether each axis could be
	// identified from the landmarks.
	HorizontalFound bool
	VerticalFound   bool
}

// Disambiguator resolves which edge of a fitted rectangle is the board's
// semantic horizontal side and which is its vertical side. Rectangle fitting
// alone leaves a four-fold rotational ambiguity.
type Disambiguator interface {
	// Disambiguate picks signed horizontal/vertical directions from the
	// rectangle's two axes. landmarks maps labels to plane-local 2D
	// positions relative to the rectangle center.
	Disambiguate(rect Rectangle, landmarks map[string]r2.Point) Axes
}

// LandmarkDisambiguator identifies the board's axes from two known landmark
// objects. The horizontal landmark claims whichever rectangle axis its
// direction from the board center agrees with most, signed so the landmark
// lies in the positive half; the vertical landmark fixes the sign of the
// remaining axis the same way. A landmark that is missing, at the board
// center, or not clearly aligned with an axis leaves that side unresolved.
type LandmarkDisambiguator struct {
	HorizontalLandmark string
	VerticalLandmark   string
}

// NewLandmarkDisambiguator returns a LandmarkDisambiguator with the default
// landmark labels.
func NewLandmarkDisambiguator() *LandmarkDisambiguator {
	return &LandmarkDisambiguator{
		HorizontalLandmark: DefaultHorizontalLandmark,
		VerticalLandmark:   DefaultVerticalLandmark,
	}
}

// Disambiguate implements Disambiguator.
func (ld *LandmarkDisambiguator) Disambiguate(rect Rectangle, landmarks map[string]r2.Point) Axes {
	long := rect.Axis
	short := rect.ShortAxis()
	out := Axes{Horizontal: long, Vertical: short}

	hDir, hasH := landmarkDirection(landmarks, ld.HorizontalLandmark, rect.Center)
	vDir, hasV := landmarkDirection(landmarks, ld.VerticalLandmark, rect.Center)

	if hasH {
		alongLong := hDir.Dot(long)
		alongShort := hDir.Dot(short)
		if math.Abs(alongShort) > math.Abs(alongLong) {
			// the horizontal landmark sits along the short side; swap roles
			long, short = short, long
			alongLong = alongShort
		}
		if math.Abs(alongLong) >= minAxisAgreement {
			if alongLong < 0 {
				long = long.Mul(-1)
			}
			out.Horizontal = long
			out.HorizontalFound = true
		}
	}
	if hasV {
		alongShort := vDir.Dot(short)
		if math.Abs(alongShort) >= minAxisAgreement {
			if alongShort < 0 {
				short = short.Mul(-1)
			}
			out.Vertical = short
			out.VerticalFound = true
		}
	}
	return out
}

// landmarkDirection returns the unit direction from the rectangle center to
// the landmark, if the landmark exists and is not on top of the center.
func landmarkDirection(landmarks map[string]r2.Point, label string, center r2.Point) (r2.Point, bool) {
	pos, ok := landmarks[label]
	if !ok {
		return r2.Point{}, false
	}
	dir := pos.Sub(center)
	norm := dir.Norm()
	if norm < minRectExtent {
		return r2.Point{}, false
	}
	return dir.Mul(1 / norm), true
}
