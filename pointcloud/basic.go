package pointcloud

import (
	"github.com/golang/geo/r3"
)

// basicPointCloud is the basic implementation of the PointCloud interface,
// backed by a slice of points in insertion order.
type basicPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud backed by a basicPointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by a basicPointCloud.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

// NewFromSlice builds a PointCloud from the given points, dropping any entry
// with a NaN or infinite component. Invalid entries must never reach the
// geometric fitting code.
func NewFromSlice(pts []r3.Vector) PointCloud {
	cloud := NewWithPrealloc(len(pts))
	for _, p := range pts {
		if !IsValidPoint(p) {
			continue
		}
		//nolint:errcheck // Set on a basicPointCloud cannot fail
		cloud.Set(p)
	}
	return cloud
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) Set(p r3.Vector) error {
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
	return nil
}

func (cloud *basicPointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

func (cloud *basicPointCloud) Iterate(fn func(p r3.Vector) bool) {
	for _, p := range cloud.points {
		if !fn(p) {
			return
		}
	}
}
