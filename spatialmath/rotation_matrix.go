package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// orthoTol is how far from orthonormal a rotation matrix may be before it is
// rejected.
const orthoTol = 1e-6

// RotationMatrix is a 3x3 rotation matrix stored row major.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrixFromCols builds a rotation matrix whose columns are the
// given basis vectors. The basis must be orthonormal and right-handed.
func NewRotationMatrixFromCols(x, y, z r3.Vector) (*RotationMatrix, error) {
	for _, v := range []r3.Vector{x, y, z} {
		if math.Abs(v.Norm()-1) > orthoTol {
			return nil, errors.Errorf("rotation matrix column %v is not unit length", v)
		}
	}
	if math.Abs(x.Dot(y)) > orthoTol || math.Abs(y.Dot(z)) > orthoTol || math.Abs(x.Dot(z)) > orthoTol {
		return nil, errors.New("rotation matrix columns are not orthogonal")
	}
	if x.Cross(y).Dot(z) < 0 {
		return nil, errors.New("rotation matrix is not right-handed")
	}
	return &RotationMatrix{[9]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}}, nil
}

// At returns the entry at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Col returns the a vector representing the given column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Row returns the a vector representing the given row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Mul returns the matrix product rm * v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Quaternion converts the rotation matrix to a unit quaternion.
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := mgl64.Ident4()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m.Set(row, col, rm.At(row, col))
		}
	}
	q := mgl64.Mat4ToQuat(m)
	return Normalize(quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()})
}

// QuatToRotationMatrix converts a quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	n := Normalize(q)
	m := mgl64.Quat{W: n.Real, V: mgl64.Vec3{n.Imag, n.Jmag, n.Kmag}}.Mat4()
	rm := &RotationMatrix{}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			rm.mat[3*row+col] = m.At(row, col)
		}
	}
	return rm
}
