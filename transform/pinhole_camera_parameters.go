// Package transform provides the pinhole camera model used to move between
// image pixels and 3D camera-frame coordinates.
package transform

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is returned when camera intrinsic parameters are needed but
// have not been provided yet.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective
// projection of a 3D scene to the 2D image plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("intrinsics do not exist")
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and
// turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	byteValue, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON file")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// PointToPixel projects a 3D point in the camera frame to a pixel in the image
// plane. The returned coordinates are not rounded; callers decide how to bin
// them. A point with non-positive depth projects to (-1, -1) so that cropping
// against image bounds filters it out.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z > 0. {
		u := (x/z)*params.Fx + params.Ppx
		v := (y/z)*params.Fy + params.Ppy
		return u, v
	}
	return -1.0, -1.0
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera
// frame. The intrinsics should be the ones of the sensor that produced the
// image containing the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(u, v, z float64) (float64, float64, float64) {
	xOverZ := (u - params.Ppx) / params.Fx
	yOverZ := (v - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// ProjectPoint is a convenience wrapper around PointToPixel for r3 vectors.
func (params *PinholeCameraIntrinsics) ProjectPoint(pt r3.Vector) (float64, float64) {
	return params.PointToPixel(pt.X, pt.Y, pt.Z)
}
