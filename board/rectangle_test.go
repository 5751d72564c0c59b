package board

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/snipe75/tum-tb-perception/pointcloud"
)

// rotate2 rotates a point by theta radians about the origin.
func rotate2(p r2.Point, theta float64) r2.Point {
	c, s := math.Cos(theta), math.Sin(theta)
	return r2.Point{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y}
}

func rectanglePoints(length, width, theta float64, offset r2.Point) []r2.Point {
	pts := []r2.Point{}
	for i := 0; i <= 20; i++ {
		for j := 0; j <= 10; j++ {
			p := r2.Point{
				X: -length/2 + length*float64(i)/20,
				Y: -width/2 + width*float64(j)/10,
			}
			pts = append(pts, rotate2(p, theta).Add(offset))
		}
	}
	return pts
}

func TestMinAreaRectangleAxisAligned(t *testing.T) {
	pts := rectanglePoints(0.4, 0.2, 0, r2.Point{})
	rect, err := MinAreaRectangle(pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rect.Length, test.ShouldAlmostEqual, 0.4, 1e-9)
	test.That(t, rect.Width, test.ShouldAlmostEqual, 0.2, 1e-9)
	test.That(t, math.Abs(rect.Axis.Dot(r2.Point{X: 1})), test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, rect.Center.Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestMinAreaRectangleRotated(t *testing.T) {
	theta := math.Pi / 6
	offset := r2.Point{X: 1.5, Y: -0.7}
	pts := rectanglePoints(0.4, 0.2, theta, offset)
	rect, err := MinAreaRectangle(pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rect.Length, test.ShouldAlmostEqual, 0.4, 1e-9)
	test.That(t, rect.Width, test.ShouldAlmostEqual, 0.2, 1e-9)
	expectedAxis := rotate2(r2.Point{X: 1}, theta)
	test.That(t, math.Abs(rect.Axis.Dot(expectedAxis)), test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, rect.Center.Sub(offset).Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestMinAreaRectangleDegenerate(t *testing.T) {
	// collinear
	pts := []r2.Point{}
	for i := 0; i < 10; i++ {
		pts = append(pts, r2.Point{X: float64(i), Y: 2 * float64(i)})
	}
	_, err := MinAreaRectangle(pts)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, pointcloud.ErrDegenerateFit), test.ShouldBeTrue)

	// single point
	_, err = MinAreaRectangle([]r2.Point{{X: 1, Y: 1}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, pointcloud.ErrDegenerateFit), test.ShouldBeTrue)

	// empty
	_, err = MinAreaRectangle(nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, pointcloud.ErrDegenerateFit), test.ShouldBeTrue)
}

func TestShortAxisPerpendicular(t *testing.T) {
	pts := rectanglePoints(0.4, 0.2, 0.3, r2.Point{})
	rect, err := MinAreaRectangle(pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rect.Axis.Dot(rect.ShortAxis()), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, rect.ShortAxis().Norm(), test.ShouldAlmostEqual, 1.0, 1e-12)
}
