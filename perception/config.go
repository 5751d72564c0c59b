package perception

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/snipe75/tum-tb-perception/board"
	"github.com/snipe75/tum-tb-perception/segmentation"
)

// AttributeMap is a loosely typed configuration bag, e.g. parsed from JSON.
type AttributeMap map[string]interface{}

// Config are the parameters of the perception pipeline.
type Config struct {
	// NumRetries bounds how many times a cycle re-attempts orientation
	// estimation on fresh inputs before giving up for that cycle.
	NumRetries int `json:"num_retries"`
	// BoardLabel is the reserved detection label of the taskboard.
	BoardLabel string `json:"board_label"`
	// MinConfidence drops detections scored below it.
	MinConfidence float64 `json:"min_confidence"`
	// HorizontalLandmark and VerticalLandmark name the objects used to
	// resolve the board's axis ambiguity.
	HorizontalLandmark string `json:"horizontal_landmark"`
	VerticalLandmark   string `json:"vertical_landmark"`
	// RansacIterations and PlaneThreshold parameterize the plane fit.
	RansacIterations int     `json:"ransac_iterations"`
	PlaneThreshold   float64 `json:"plane_threshold"`
	// PollIntervalMs is how often the background loop checks for a fresh
	// detection batch.
	PollIntervalMs int `json:"poll_interval_ms"`
}

// NewConfig returns a Config with the pipeline defaults.
func NewConfig() Config {
	return Config{
		NumRetries:         3,
		BoardLabel:         segmentation.DefaultBoardLabel,
		MinConfidence:      0,
		HorizontalLandmark: board.DefaultHorizontalLandmark,
		VerticalLandmark:   board.DefaultVerticalLandmark,
		RansacIterations:   500,
		PlaneThreshold:     0.01,
		PollIntervalMs:     100,
	}
}

// ConvertAttributes overlays the AttributeMap onto the config.
func (cfg *Config) ConvertAttributes(am AttributeMap) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: cfg})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(am))
}

// CheckValid checks if the fields of Config have valid inputs.
func (cfg *Config) CheckValid() error {
	if cfg.NumRetries < 1 {
		return errors.Errorf("num_retries must be at least 1, got %d", cfg.NumRetries)
	}
	if cfg.BoardLabel == "" {
		return errors.New("board_label cannot be empty")
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return errors.Errorf("min_confidence must be between 0 and 1, got %v", cfg.MinConfidence)
	}
	if cfg.RansacIterations <= 0 {
		return errors.Errorf("ransac_iterations must be positive, got %d", cfg.RansacIterations)
	}
	if cfg.PlaneThreshold <= 0 {
		return errors.Errorf("plane_threshold must be positive, got %v", cfg.PlaneThreshold)
	}
	if cfg.PollIntervalMs <= 0 {
		return errors.Errorf("poll_interval_ms must be positive, got %d", cfg.PollIntervalMs)
	}
	return nil
}

func (cfg *Config) pollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalMs) * time.Millisecond
}

func (cfg *Config) clusterConfig() segmentation.ClusterConfig {
	return segmentation.ClusterConfig{
		BoardLabel:    cfg.BoardLabel,
		MinConfidence: cfg.MinConfidence,
	}
}

func (cfg *Config) fitConfig() board.FitConfig {
	return board.FitConfig{
		RansacIterations: cfg.RansacIterations,
		PlaneThreshold:   cfg.PlaneThreshold,
	}
}

func (cfg *Config) disambiguator() board.Disambiguator {
	return &board.LandmarkDisambiguator{
		HorizontalLandmark: cfg.HorizontalLandmark,
		VerticalLandmark:   cfg.VerticalLandmark,
	}
}
