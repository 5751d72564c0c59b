// Package board estimates the taskboard's orientation: it fits a planar
// rectangle to the board's point cluster and resolves the rectangle's axis
// ambiguity with landmark detections.
package board

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/snipe75/tum-tb-perception/pointcloud"
)

// minRectExtent is the smallest side length a fitted rectangle may have
// before the fit is considered degenerate.
const minRectExtent = 1e-9

// Rectangle is a minimum-area bounding rectangle of a planar point set.
type Rectangle struct {
	// Center of the rectangle.
	Center r2.Point
	// Axis is the unit direction of the long side.
	Axis r2.Point
	// Length and Width are the extents along Axis and its perpendicular.
	// Length >= Width.
	Length float64
	Width  float64
}

// ShortAxis returns the unit direction of the short side.
func (r Rectangle) ShortAxis() r2.Point {
	return r.Axis.Ortho()
}

// convexHull computes the convex hull of the points with Andrew's monotone
// chain, returned in counter-clockwise order.
func convexHull(pts []r2.Point) []r2.Point {
	if len(pts) < 3 {
		return nil
	}
	sorted := make([]r2.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b r2.Point) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}

	hull := make([]r2.Point, 0, 2*len(sorted))
	// lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper hull
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// last point is the same as the first
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// MinAreaRectangle fits the minimum-area bounding rectangle to the 2D point
// set with rotating calipers over the convex hull edges. Returns
// pointcloud.ErrDegenerateFit for collinear or too-small point sets.
func MinAreaRectangle(pts []r2.Point) (Rectangle, error) {
	hull := convexHull(pts)
	if hull == nil {
		return Rectangle{}, errors.Wrap(pointcloud.ErrDegenerateFit, "point set has no 2D extent")
	}

	best := Rectangle{}
	bestArea := math.Inf(1)
	for i := range hull {
		edge := hull[(i+1)%len(hull)].Sub(hull[i])
		norm := edge.Norm()
		if norm < minRectExtent {
			continue
		}
		dir := edge.Mul(1 / norm)
		perp := dir.Ortho()

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.Dot(dir)
			v := p.Dot(perp)
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		length := maxU - minU
		width := maxV - minV
		area := length * width
		if area >= bestArea {
			continue
		}
		bestArea = area
		centerU := (minU + maxU) / 2
		centerV := (minV + maxV) / 2
		rect := Rectangle{
			Center: dir.Mul(centerU).Add(perp.Mul(centerV)),
			Axis:   dir,
			Length: length,
			Width:  width,
		}
		if width > length {
			rect.Axis = perp
			rect.Length, rect.Width = width, length
		}
		best = rect
	}

	if math.IsInf(bestArea, 1) || best.Width < minRectExtent {
		return Rectangle{}, errors.Wrap(pointcloud.ErrDegenerateFit, "rectangle fit is degenerate")
	}
	return best, nil
}
