// Package pointcloud defines a 3D point cloud and the geometric fitting
// routines the perception pipeline runs on it.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	totalX, totalY, totalZ float64
}

// PointCloud is a general purpose container of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounds and running totals of the cloud.
	MetaData() MetaData

	// Set places the given point in the cloud.
	Set(p r3.Vector) error

	// At returns the point at the given index. Iteration order is insertion order.
	At(i int) r3.Vector

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration stops.
	Iterate(fn func(p r3.Vector) bool)
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with the new point.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}
	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
	meta.totalX += v.X
	meta.totalY += v.Y
	meta.totalZ += v.Z
}

// Centroid returns the arithmetic mean of the points in the cloud. The second
// return is false if the cloud is empty.
func Centroid(cloud PointCloud) (r3.Vector, bool) {
	n := cloud.Size()
	if n == 0 {
		return r3.Vector{}, false
	}
	meta := cloud.MetaData()
	return r3.Vector{
		X: meta.totalX / float64(n),
		Y: meta.totalY / float64(n),
		Z: meta.totalZ / float64(n),
	}, true
}

// IsValidPoint reports whether all components of the point are finite. Depth
// cameras emit NaN entries for pixels with no depth return.
func IsValidPoint(v r3.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
