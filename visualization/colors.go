// Package visualization renders detection and pose results for humans:
// annotated camera images and pose markers for downstream display.
package visualization

import (
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/snipe75/tum-tb-perception/logging"
)

// Color is an RGB triple with components in [0, 255].
type Color [3]float64

// ClassColorMap maps detection class labels to display colors.
type ClassColorMap map[string]Color

// LoadClassColors loads a label to color mapping from a YAML file. The file
// contains a key per class whose value is a list of R, G, B values in
// [0, 255].
func LoadClassColors(path string) (ClassColorMap, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "error reading class colors file")
	}
	raw := map[string][]float64{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "error parsing class colors YAML")
	}
	colors := make(ClassColorMap, len(raw))
	for label, values := range raw {
		if len(values) != 3 {
			return nil, errors.Errorf("class %q must have 3 color values, got %d", label, len(values))
		}
		for _, v := range values {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("class %q color value %v out of range [0, 255]", label, v)
			}
		}
		colors[label] = Color{values[0], values[1], values[2]}
	}
	return colors, nil
}

// Color returns the configured color for the class. An unknown class gets a
// random (but pleasant) color and a warning.
func (m ClassColorMap) Color(label string, logger logging.Logger) Color {
	if c, ok := m[label]; ok {
		return c
	}
	if logger != nil {
		logger.Warnw("class not found in color map, assigning a random color", "class", label)
	}
	r, g, b := colorful.HappyColor().RGB255()
	return Color{float64(r), float64(g), float64(b)}
}
