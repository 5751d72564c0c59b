package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

var testIntrinsics = PinholeCameraIntrinsics{
	Width:  640,
	Height: 480,
	Fx:     617.5,
	Fy:     617.3,
	Ppx:    320.1,
	Ppy:    239.4,
}

func TestProjectionRoundTrip(t *testing.T) {
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 1},
		{X: 0.25, Y: -0.1, Z: 0.8},
		{X: -0.3, Y: 0.4, Z: 2.5},
		{X: 1.2, Y: 0.9, Z: 4.0},
	}
	for _, pt := range pts {
		u, v := testIntrinsics.ProjectPoint(pt)
		x, y, z := testIntrinsics.PixelToPoint(u, v, pt.Z)
		test.That(t, x, test.ShouldAlmostEqual, pt.X, 1e-9)
		test.That(t, y, test.ShouldAlmostEqual, pt.Y, 1e-9)
		test.That(t, z, test.ShouldAlmostEqual, pt.Z, 1e-9)
	}
}

func TestProjectionBehindCamera(t *testing.T) {
	u, v := testIntrinsics.PointToPixel(0.1, 0.1, 0)
	test.That(t, u, test.ShouldEqual, -1.0)
	test.That(t, v, test.ShouldEqual, -1.0)
	u, v = testIntrinsics.PointToPixel(0.1, 0.1, -1.5)
	test.That(t, u, test.ShouldEqual, -1.0)
	test.That(t, v, test.ShouldEqual, -1.0)
}

func TestCheckValid(t *testing.T) {
	good := testIntrinsics
	test.That(t, good.CheckValid(), test.ShouldBeNil)

	var nilParams *PinholeCameraIntrinsics
	err := nilParams.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	bad := testIntrinsics
	bad.Fx = 0
	err = bad.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intrinsics.json")
	data := `{"width_px": 640, "height_px": 480, "fx": 617.5, "fy": 617.3, "ppx": 320.1, "ppy": 239.4}`
	test.That(t, os.WriteFile(path, []byte(data), 0o600), test.ShouldBeNil)

	intrinsics, err := NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *intrinsics, test.ShouldResemble, testIntrinsics)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	badPath := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(badPath, []byte(`{"fx": 0}`), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(badPath)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}
