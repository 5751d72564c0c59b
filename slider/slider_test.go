package slider

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

// noiseScene fills an image with deterministic noise so every template
// placement is unique.
func noiseScene(w, h int) *image.Gray {
	r := rand.New(rand.NewSource(7))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(r.Intn(256))})
		}
	}
	return img
}

func cutTemplate(scene *image.Gray, rect image.Rectangle) *image.Gray {
	templ := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			templ.SetGray(x, y, scene.GrayAt(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return templ
}

func TestMatchKnownOffset(t *testing.T) {
	scene := noiseScene(80, 40)
	templ := cutTemplate(scene, image.Rect(23, 11, 39, 23))

	solver, err := NewSolver(NewSolverConfig())
	test.That(t, err, test.ShouldBeNil)

	result, err := solver.Match(scene, templ)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Offset, test.ShouldResemble, image.Pt(23, 11))
	test.That(t, result.Score, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestMatchResized(t *testing.T) {
	scene := image.NewGray(image.Rect(0, 0, 80, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 80; x++ {
			v := uint8(10)
			if x >= 32 && x < 48 && y >= 16 && y < 32 {
				v = 240
			}
			scene.SetGray(x, y, color.Gray{Y: v})
		}
	}
	// template covers the block's top-left corner so it has variance
	templ := cutTemplate(scene, image.Rect(26, 10, 42, 26))

	solver, err := NewSolver(SolverConfig{ResizeWidthPx: 40, MinScore: 0.5})
	test.That(t, err, test.ShouldBeNil)

	result, err := solver.Match(scene, templ)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Offset.X, test.ShouldBeBetweenOrEqual, 24, 28)
	test.That(t, result.Offset.Y, test.ShouldBeBetweenOrEqual, 8, 12)
}

func TestMatchDegenerateInputs(t *testing.T) {
	solver, err := NewSolver(NewSolverConfig())
	test.That(t, err, test.ShouldBeNil)

	scene := noiseScene(40, 30)

	_, err = solver.Match(scene, noiseScene(60, 10))
	test.That(t, errors.Is(err, ErrTemplateTooLarge), test.ShouldBeTrue)

	flat := image.NewGray(image.Rect(0, 0, 8, 8))
	_, err = solver.Match(scene, flat)
	test.That(t, errors.Is(err, ErrNoVariance), test.ShouldBeTrue)
}

func TestMatchLowScore(t *testing.T) {
	scene := noiseScene(60, 30)
	// a template from an unrelated noise image never correlates strongly
	templ := cutTemplate(noiseScene(16, 12), image.Rect(0, 0, 16, 12))

	solver, err := NewSolver(SolverConfig{MinScore: 0.99})
	test.That(t, err, test.ShouldBeNil)

	_, err = solver.Match(scene, templ)
	test.That(t, errors.Is(err, ErrLowScore), test.ShouldBeTrue)
}

func TestAlignmentDistance(t *testing.T) {
	scene := noiseScene(100, 40)
	templ := cutTemplate(scene, image.Rect(30, 10, 50, 26))

	solver, err := NewSolver(NewSolverConfig())
	test.That(t, err, test.ShouldBeNil)

	// match center is 30 + 20/2 = 40
	dist, err := solver.AlignmentDistance(scene, templ, 25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldEqual, 15)

	dist, err = solver.AlignmentDistance(scene, templ, 55)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldEqual, -15)
}

func TestSolverConfigValidation(t *testing.T) {
	_, err := NewSolver(SolverConfig{ResizeWidthPx: -1})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewSolver(SolverConfig{MinScore: 2})
	test.That(t, err, test.ShouldNotBeNil)
}
