// Package spatialmath defines the spatial math used to express the poses the
// perception pipeline estimates.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Norm returns the magnitude of the quaternion.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize returns the unit quaternion representing the same rotation.
// Matrix-to-quaternion conversion can drift off unit length; outputs are
// normalized before publishing.
func Normalize(q quat.Number) quat.Number {
	n := Norm(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// Flip multiplies a quaternion by -1, the same orientation in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// AngleBetween returns the rotation angle in radians needed to get from one
// orientation to the other, in [0, pi].
func AngleBetween(q1, q2 quat.Number) float64 {
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
	dot = math.Abs(dot)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}

// QuaternionAlmostEqual will return a bool describing whether the two
// quaternions represent approximately the same orientation. q and -q are the
// same rotation.
func QuaternionAlmostEqual(q1, q2 quat.Number, tol float64) bool {
	return AngleBetween(q1, q2) < tol
}
