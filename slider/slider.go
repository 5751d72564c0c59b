// Package slider estimates the pixel-space alignment distance for the slider
// task by matching a template image against the camera scene.
package slider

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrTemplateTooLarge is returned when the template does not fit inside
	// the scene.
	ErrTemplateTooLarge = errors.New("template is larger than the scene")
	// ErrNoVariance is returned when the template is a flat image and
	// correlation is undefined.
	ErrNoVariance = errors.New("template has zero intensity variance")
	// ErrLowScore is returned when the best match falls below the configured
	// minimum score.
	ErrLowScore = errors.New("best match score below minimum")
)

// SolverConfig holds the attributes of the slider solver.
type SolverConfig struct {
	// ResizeWidthPx optionally downscales the scene (and template, by the
	// same factor) before the search. Zero disables resizing.
	ResizeWidthPx int `json:"resize_width_px"`
	// MinScore rejects matches whose normalized correlation falls below it.
	MinScore float64 `json:"min_score"`
}

// NewSolverConfig returns a config with the default attributes.
func NewSolverConfig() SolverConfig {
	return SolverConfig{ResizeWidthPx: 0, MinScore: 0.5}
}

// CheckValid ensures all parts of the config are valid.
func (cfg SolverConfig) CheckValid() error {
	if cfg.ResizeWidthPx < 0 {
		return errors.Errorf("got negative resize width %d", cfg.ResizeWidthPx)
	}
	if cfg.MinScore < -1 || cfg.MinScore > 1 {
		return errors.Errorf("min score %f outside [-1, 1]", cfg.MinScore)
	}
	return nil
}

// MatchResult is the best template placement found in a scene. Offset is the
// top-left corner of the placement in scene pixel coordinates, Score the
// normalized cross-correlation at that placement in [-1, 1].
type MatchResult struct {
	Offset image.Point
	Score  float64
}

// Solver locates a template within scene images using a normalized
// cross-correlation search over every placement.
type Solver struct {
	cfg SolverConfig
}

// NewSolver validates the config and returns a solver.
func NewSolver(cfg SolverConfig) (*Solver, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid slider solver config")
	}
	return &Solver{cfg: cfg}, nil
}

// Match searches the scene for the template and returns the best placement.
// The returned offset is always in the original scene's pixel coordinates,
// even when the search ran on downscaled copies.
func (s *Solver) Match(scene, template image.Image) (MatchResult, error) {
	scale := 1.0
	if s.cfg.ResizeWidthPx > 0 && scene.Bounds().Dx() > s.cfg.ResizeWidthPx {
		scale = float64(s.cfg.ResizeWidthPx) / float64(scene.Bounds().Dx())
		scene = imaging.Resize(scene, s.cfg.ResizeWidthPx, 0, imaging.Linear)
		templateWidth := int(math.Round(float64(template.Bounds().Dx()) * scale))
		template = imaging.Resize(template, templateWidth, 0, imaging.Linear)
	}

	sceneVals, sceneW, sceneH := grayValues(scene)
	templVals, templW, templH := grayValues(template)
	if templW > sceneW || templH > sceneH {
		return MatchResult{}, ErrTemplateTooLarge
	}

	templMean := mean(templVals)
	templDen := 0.0
	for _, v := range templVals {
		d := v - templMean
		templDen += d * d
	}
	if templDen == 0 {
		return MatchResult{}, ErrNoVariance
	}

	best := MatchResult{Score: math.Inf(-1)}
	for oy := 0; oy <= sceneH-templH; oy++ {
		for ox := 0; ox <= sceneW-templW; ox++ {
			score, ok := correlate(sceneVals, sceneW, ox, oy, templVals, templW, templH, templMean, templDen)
			if ok && score > best.Score {
				best = MatchResult{Offset: image.Pt(ox, oy), Score: score}
			}
		}
	}
	if math.IsInf(best.Score, -1) {
		return MatchResult{}, ErrNoVariance
	}

	if scale != 1.0 {
		best.Offset = image.Pt(
			int(math.Round(float64(best.Offset.X)/scale)),
			int(math.Round(float64(best.Offset.Y)/scale)),
		)
	}
	if best.Score < s.cfg.MinScore {
		return best, errors.Wrapf(ErrLowScore, "score %.3f < %.3f", best.Score, s.cfg.MinScore)
	}
	return best, nil
}

// AlignmentDistance matches the template in the scene and returns the signed
// pixel distance between the match's horizontal center and the reference
// column. The sign follows image coordinates, positive when the match center
// is right of the reference.
func (s *Solver) AlignmentDistance(scene, template image.Image, reference int) (int, error) {
	result, err := s.Match(scene, template)
	if err != nil {
		return 0, err
	}
	center := result.Offset.X + template.Bounds().Dx()/2
	return center - reference, nil
}

// correlate computes the normalized cross-correlation of the template against
// the scene window at (ox, oy). The bool is false when the window is flat.
func correlate(
	scene []float64, sceneW, ox, oy int,
	templ []float64, templW, templH int,
	templMean, templDen float64,
) (float64, bool) {
	windowSum := 0.0
	for ty := 0; ty < templH; ty++ {
		row := (oy+ty)*sceneW + ox
		for tx := 0; tx < templW; tx++ {
			windowSum += scene[row+tx]
		}
	}
	windowMean := windowSum / float64(templW*templH)

	num, windowDen := 0.0, 0.0
	for ty := 0; ty < templH; ty++ {
		row := (oy+ty)*sceneW + ox
		trow := ty * templW
		for tx := 0; tx < templW; tx++ {
			sd := scene[row+tx] - windowMean
			td := templ[trow+tx] - templMean
			num += sd * td
			windowDen += sd * sd
		}
	}
	if windowDen == 0 {
		return 0, false
	}
	return num / math.Sqrt(windowDen*templDen), true
}

// grayValues converts the image to grayscale and returns its intensities in
// row-major order.
func grayValues(img image.Image) ([]float64, int, int) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	vals := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		rowStart := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < w; x++ {
			vals = append(vals, float64(gray.Pix[rowStart+x*4]))
		}
	}
	return vals, w, h
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
