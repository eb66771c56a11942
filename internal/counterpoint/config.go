package counterpoint

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid counterpoint config")

// Config holds every validator threshold.
//
//   - BeatsPerBar: meter length in beats (> 0).
//   - StrongBeats: beat offsets within a bar that are metrically strong.
//   - StepLimit: largest melodic move that still counts as a step (1..4).
//   - LeapThreshold: melodic moves larger than this must be filled (>= StepLimit).
//   - SpacingLimit / BassSpacingLimit: soft gaps between adjacent upper voices
//     and above the lowest voice.
//   - StaticRunLimit: identical moving intervals tolerated before a warning (>= 1).
//   - OuterDirectOnly: check direct perfect motion only on the outer pair.
type Config struct {
	BeatsPerBar      float64   `json:"beats_per_bar" yaml:"beats_per_bar"`
	StrongBeats      []float64 `json:"strong_beats" yaml:"strong_beats"`
	StepLimit        int       `json:"step_limit" yaml:"step_limit"`
	LeapThreshold    int       `json:"leap_threshold" yaml:"leap_threshold"`
	SpacingLimit     int       `json:"spacing_limit" yaml:"spacing_limit"`
	BassSpacingLimit int       `json:"bass_spacing_limit" yaml:"bass_spacing_limit"`
	StaticRunLimit   int       `json:"static_run_limit" yaml:"static_run_limit"`
	OuterDirectOnly  bool      `json:"outer_direct_only" yaml:"outer_direct_only"`
}

func DefaultConfig() Config {
	return Config{
		BeatsPerBar:      4,
		StrongBeats:      []float64{0, 2},
		StepLimit:        2,
		LeapThreshold:    4,
		SpacingLimit:     12,
		BassSpacingLimit: 24,
		StaticRunLimit:   2,
		OuterDirectOnly:  true,
	}
}

func (c Config) Validate() error {
	if c.BeatsPerBar <= 0 {
		return fmt.Errorf("%w: beats per bar must be positive", ErrInvalidConfig)
	}
	for _, b := range c.StrongBeats {
		if b < 0 || b >= c.BeatsPerBar {
			return fmt.Errorf("%w: strong beat %.2f outside bar", ErrInvalidConfig, b)
		}
	}
	if c.StepLimit < 1 || c.StepLimit > 4 {
		return fmt.Errorf("%w: step limit %d outside 1..4", ErrInvalidConfig, c.StepLimit)
	}
	if c.LeapThreshold < c.StepLimit {
		return fmt.Errorf("%w: leap threshold %d below step limit %d", ErrInvalidConfig, c.LeapThreshold, c.StepLimit)
	}
	if c.SpacingLimit < 1 || c.BassSpacingLimit < 1 {
		return fmt.Errorf("%w: spacing limits must be positive", ErrInvalidConfig)
	}
	if c.StaticRunLimit < 1 {
		return fmt.Errorf("%w: static run limit must be >= 1", ErrInvalidConfig)
	}
	return nil
}
