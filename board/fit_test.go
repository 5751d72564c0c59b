package board

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/pointcloud"
	"github.com/snipe75/tum-tb-perception/spatialmath"
)

// axisAngleQuat builds a unit quaternion rotating by theta about the given axis.
func axisAngleQuat(axis r3.Vector, theta float64) quat.Number {
	a := axis.Normalize()
	s := math.Sin(theta / 2)
	return quat.Number{Real: math.Cos(theta / 2), Imag: s * a.X, Jmag: s * a.Y, Kmag: s * a.Z}
}

// syntheticBoard builds a rectangular board point cluster and landmark
// positions, posed in the camera frame by the given rotation and translation.
// The board's horizontal side has the given length, the vertical side the
// given width; the horizontal landmark sits on the positive horizontal side,
// the vertical landmark on the positive vertical side.
func syntheticBoard(
	t *testing.T,
	q quat.Number,
	translation r3.Vector,
	length, width float64,
) (pointcloud.PointCloud, map[string]r3.Vector) {
	t.Helper()
	rm := spatialmath.QuatToRotationMatrix(q)
	place := func(local r3.Vector) r3.Vector {
		return rm.Mul(local).Add(translation)
	}
	cluster := pointcloud.New()
	for i := 0; i <= 20; i++ {
		for j := 0; j <= 20; j++ {
			local := r3.Vector{
				X: -length/2 + length*float64(i)/20,
				Y: -width/2 + width*float64(j)/20,
			}
			test.That(t, cluster.Set(place(local)), test.ShouldBeNil)
		}
	}
	positions := map[string]r3.Vector{
		DefaultHorizontalLandmark: place(r3.Vector{X: length * 0.4, Y: 0}),
		DefaultVerticalLandmark:   place(r3.Vector{X: 0, Y: width * 0.4}),
	}
	return cluster, positions
}

func TestFitBoardFrameRecoversPose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := axisAngleQuat(r3.Vector{X: 0.3, Y: -0.2, Z: 1}, 0.7)
	translation := r3.Vector{X: 0.1, Y: -0.05, Z: 0.9}
	cluster, positions := syntheticBoard(t, q, translation, 0.4, 0.25)

	result := FitBoardFrame(cluster, positions, NewLandmarkDisambiguator(), NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeTrue)
	test.That(t, result.HorizontalSideFound, test.ShouldBeTrue)
	test.That(t, result.VerticalSideFound, test.ShouldBeTrue)

	test.That(t, result.Pose.Point.Sub(translation).Norm(), test.ShouldBeLessThan, 1e-6)
	angErr := spatialmath.AngleBetween(result.Pose.Orientation, q)
	test.That(t, angErr, test.ShouldBeLessThan, 2*math.Pi/180)
	test.That(t, spatialmath.Norm(result.Pose.Orientation), test.ShouldAlmostEqual, 1.0, 1e-9)

	test.That(t, result.Rectangle.Length, test.ShouldAlmostEqual, 0.4, 1e-6)
	test.That(t, result.Rectangle.Width, test.ShouldAlmostEqual, 0.25, 1e-6)
}

func TestFitBoardFrameSquareBoard(t *testing.T) {
	// A square board has no long side; the landmarks alone must resolve
	// which axis is which.
	logger := logging.NewTestLogger(t)
	q := axisAngleQuat(r3.Vector{Z: 1}, 0.4)
	translation := r3.Vector{Z: 1.2}
	cluster, positions := syntheticBoard(t, q, translation, 0.3, 0.3)

	result := FitBoardFrame(cluster, positions, NewLandmarkDisambiguator(), NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeTrue)
	angErr := spatialmath.AngleBetween(result.Pose.Orientation, q)
	test.That(t, angErr, test.ShouldBeLessThan, 2*math.Pi/180)
}

func TestFitBoardFrameMissingLandmark(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := axisAngleQuat(r3.Vector{Z: 1}, 0.2)
	cluster, positions := syntheticBoard(t, q, r3.Vector{Z: 1}, 0.4, 0.25)
	delete(positions, DefaultVerticalLandmark)

	result := FitBoardFrame(cluster, positions, NewLandmarkDisambiguator(), NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeFalse)
	test.That(t, result.HorizontalSideFound, test.ShouldBeTrue)
	test.That(t, result.VerticalSideFound, test.ShouldBeFalse)
	test.That(t, result.Reason, test.ShouldNotBeEmpty)
}

func TestFitBoardFrameDegenerateCluster(t *testing.T) {
	logger := logging.NewTestLogger(t)

	// empty cluster
	result := FitBoardFrame(pointcloud.New(), nil, nil, NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeFalse)
	test.That(t, result.Reason, test.ShouldNotBeEmpty)

	// single point
	single := pointcloud.New()
	test.That(t, single.Set(r3.Vector{X: 1, Y: 2, Z: 3}), test.ShouldBeNil)
	result = FitBoardFrame(single, nil, nil, NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeFalse)

	// collinear cluster
	line := pointcloud.New()
	for i := 0; i < 30; i++ {
		test.That(t, line.Set(r3.Vector{X: float64(i) * 0.01, Y: 0, Z: 1}), test.ShouldBeNil)
	}
	result = FitBoardFrame(line, nil, nil, NewFitConfig(), logger)
	test.That(t, result.Success, test.ShouldBeFalse)
	test.That(t, result.HorizontalSideFound, test.ShouldBeFalse)
	test.That(t, result.VerticalSideFound, test.ShouldBeFalse)
}
