package pointcloud

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateFit is returned when a geometric fit fails numerically, e.g.
// too few points or a collinear cluster. Callers are expected to retry on
// fresh data rather than treat this as fatal.
var ErrDegenerateFit = errors.New("degenerate geometric fit")

// minPlanePoints is the smallest cluster a plane can be fit to.
const minPlanePoints = 3

// Plane defines a planar object in a point cloud.
type Plane struct {
	cloud    PointCloud
	equation [4]float64
}

// NewPlane creates a plane from a point cloud of inliers and an equation
// [0]x + [1]y + [2]z + [3] = 0 with a unit normal.
func NewPlane(cloud PointCloud, equation [4]float64) *Plane {
	return &Plane{cloud, equation}
}

// PointCloud returns the inlier points of the plane.
func (p *Plane) PointCloud() PointCloud {
	return p.cloud
}

// Equation returns the plane equation [0]x + [1]y + [2]z + [3] = 0.
func (p *Plane) Equation() [4]float64 {
	return p.equation
}

// Normal returns the unit normal vector of the plane.
func (p *Plane) Normal() r3.Vector {
	return r3.Vector{X: p.equation[0], Y: p.equation[1], Z: p.equation[2]}
}

// Center returns the centroid of the plane's inlier points.
func (p *Plane) Center() r3.Vector {
	center, _ := Centroid(p.cloud)
	return center
}

// Distance calculates the signed distance from the plane to the input point.
func (p *Plane) Distance(pt r3.Vector) float64 {
	return p.equation[0]*pt.X + p.equation[1]*pt.Y + p.equation[2]*pt.Z + p.equation[3]
}

// FitPlane fits a plane to the point cloud with RANSAC and refines the winning
// model with a least-squares fit (SVD) on the inliers.
// nIterations is the number of RANSAC iterations; threshold is the maximum
// distance to the plane for a point to count as an inlier.
// Returns ErrDegenerateFit if the cloud is too small or too close to
// collinear for a well-conditioned fit.
func FitPlane(cloud PointCloud, nIterations int, threshold float64) (*Plane, error) {
	nPoints := cloud.Size()
	if nPoints < minPlanePoints {
		return nil, errors.Wrapf(ErrDegenerateFit, "cannot fit plane to %d point(s)", nPoints)
	}

	// Deterministic sampling keeps repeated fits on the same cluster stable.
	r := rand.New(rand.NewSource(1))

	var bestEquation [4]float64
	bestInliers := 0
	foundModel := false

	for i := 0; i < nIterations; i++ {
		// sample 3 points from the cloud to define a candidate plane
		p1 := cloud.At(r.Intn(nPoints))
		p2 := cloud.At(r.Intn(nPoints))
		p3 := cloud.At(r.Intn(nPoints))

		v1 := p2.Sub(p1)
		v2 := p3.Sub(p1)
		cross := v1.Cross(v2)
		if cross.Norm() < 1e-12 {
			// collinear or duplicated sample
			continue
		}
		vec := cross.Normalize()
		// deduce d from any sampled point: vec . p + d = 0
		d := -vec.Dot(p2)
		currentEquation := [4]float64{vec.X, vec.Y, vec.Z, d}

		currentInliers := 0
		cloud.Iterate(func(pt r3.Vector) bool {
			dist := currentEquation[0]*pt.X + currentEquation[1]*pt.Y + currentEquation[2]*pt.Z + currentEquation[3]
			if math.Abs(dist) < threshold {
				currentInliers++
			}
			return true
		})
		if currentInliers > bestInliers {
			bestEquation = currentEquation
			bestInliers = currentInliers
			foundModel = true
		}
	}
	if !foundModel || bestInliers < minPlanePoints {
		return nil, errors.Wrap(ErrDegenerateFit, "ransac found no plane model")
	}

	inliers := NewWithPrealloc(bestInliers)
	cloud.Iterate(func(pt r3.Vector) bool {
		dist := bestEquation[0]*pt.X + bestEquation[1]*pt.Y + bestEquation[2]*pt.Z + bestEquation[3]
		if math.Abs(dist) < threshold {
			//nolint:errcheck
			inliers.Set(pt)
		}
		return true
	})

	equation, err := refinePlane(inliers)
	if err != nil {
		return nil, err
	}
	// keep the refined normal on the same side as the ransac estimate
	if equation[0]*bestEquation[0]+equation[1]*bestEquation[1]+equation[2]*bestEquation[2] < 0 {
		for i := range equation {
			equation[i] = -equation[i]
		}
	}
	return NewPlane(inliers, equation), nil
}

// refinePlane runs a total least-squares plane fit on the cloud: the normal is
// the right singular vector of the centered point matrix with the smallest
// singular value.
func refinePlane(cloud PointCloud) ([4]float64, error) {
	center, ok := Centroid(cloud)
	if !ok {
		return [4]float64{}, errors.Wrap(ErrDegenerateFit, "empty inlier set")
	}
	n := cloud.Size()
	centered := mat.NewDense(n, 3, nil)
	i := 0
	cloud.Iterate(func(pt r3.Vector) bool {
		centered.Set(i, 0, pt.X-center.X)
		centered.Set(i, 1, pt.Y-center.Y)
		centered.Set(i, 2, pt.Z-center.Z)
		i++
		return true
	})

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThinV); !ok {
		return [4]float64{}, errors.Wrap(ErrDegenerateFit, "svd failed to factorize inlier matrix")
	}
	values := svd.Values(nil)
	// A collinear cluster has only one significant singular value; a plane
	// needs two in-plane directions with real extent.
	if values[0] < 1e-12 || values[1]/values[0] < 1e-6 {
		return [4]float64{}, errors.Wrap(ErrDegenerateFit, "inlier cluster is collinear")
	}

	var v mat.Dense
	svd.VTo(&v)
	normal := r3.Vector{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}.Normalize()
	d := -normal.Dot(center)
	return [4]float64{normal.X, normal.Y, normal.Z, d}, nil
}
