package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a translation paired with a unit quaternion
// rotation.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewPose creates a pose from a point and an orientation.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{Point: point, Orientation: Normalize(orientation)}
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{Point: point, Orientation: quat.Number{Real: 1}}
}

// Matrix returns the pose as a 4x4 homogeneous transform.
func (p Pose) Matrix() *mat.Dense {
	rm := QuatToRotationMatrix(p.Orientation)
	out := mat.NewDense(4, 4, nil)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out.Set(row, col, rm.At(row, col))
		}
	}
	out.Set(0, 3, p.Point.X)
	out.Set(1, 3, p.Point.Y)
	out.Set(2, 3, p.Point.Z)
	out.Set(3, 3, 1)
	return out
}

// PoseAlmostEqual reports whether two poses are within the given translation
// and rotation (radians) tolerances of each other.
func PoseAlmostEqual(p1, p2 Pose, transTol, angTol float64) bool {
	return p1.Point.Sub(p2.Point).Norm() < transTol &&
		QuaternionAlmostEqual(p1.Orientation, p2.Orientation, angTol)
}
