package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func makeTiltedGrid(t *testing.T) PointCloud {
	t.Helper()
	// plane z = 1 + 0.5x, i.e. -0.5x + z - 1 = 0
	cloud := New()
	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j++ {
			x := float64(i) * 0.1
			y := float64(j) * 0.1
			z := 1 + 0.5*x
			test.That(t, cloud.Set(r3.Vector{X: x, Y: y, Z: z}), test.ShouldBeNil)
		}
	}
	return cloud
}

func TestFitPlane(t *testing.T) {
	cloud := makeTiltedGrid(t)
	plane, err := FitPlane(cloud, 500, 0.01)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plane.PointCloud().Size(), test.ShouldEqual, cloud.Size())

	normal := plane.Normal()
	expected := r3.Vector{X: -0.5, Y: 0, Z: 1}.Normalize()
	// normal direction is sign-ambiguous
	dot := math.Abs(normal.Dot(expected))
	test.That(t, dot, test.ShouldAlmostEqual, 1.0, 1e-6)

	// every grid point should be on the refined plane
	test.That(t, math.Abs(plane.Distance(r3.Vector{X: 0.5, Y: 0.5, Z: 1.25})), test.ShouldBeLessThan, 1e-9)
	test.That(t, math.Abs(plane.Distance(r3.Vector{X: 0.5, Y: 0.5, Z: 1.35})), test.ShouldAlmostEqual, 0.1/math.Sqrt(1.25), 1e-9)
}

func TestFitPlaneWithOutliers(t *testing.T) {
	cloud := makeTiltedGrid(t)
	// a handful of far outliers should be rejected by ransac
	test.That(t, cloud.Set(r3.Vector{X: 0.5, Y: 0.5, Z: 9}), test.ShouldBeNil)
	test.That(t, cloud.Set(r3.Vector{X: 0.2, Y: 0.8, Z: -4}), test.ShouldBeNil)
	plane, err := FitPlane(cloud, 500, 0.01)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plane.PointCloud().Size(), test.ShouldEqual, cloud.Size()-2)
}

func TestFitPlaneDegenerate(t *testing.T) {
	// too few points
	cloud := New()
	test.That(t, cloud.Set(r3.Vector{X: 1, Y: 2, Z: 3}), test.ShouldBeNil)
	_, err := FitPlane(cloud, 100, 0.01)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrDegenerateFit), test.ShouldBeTrue)

	// collinear points
	line := New()
	for i := 0; i < 20; i++ {
		test.That(t, line.Set(r3.Vector{X: float64(i), Y: 2 * float64(i), Z: 0}), test.ShouldBeNil)
	}
	_, err = FitPlane(line, 100, 0.01)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrDegenerateFit), test.ShouldBeTrue)
}
