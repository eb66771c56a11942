package voicing

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid voicing config")

// Range is an inclusive legal pitch band for one voice.
type Range struct {
	Low  int `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

func (r Range) Contains(p int) bool { return p >= r.Low && p <= r.High }

func (r Range) Center() float64 { return float64(r.Low+r.High) / 2 }

// Shift moves the band by semitones.
func (r Range) Shift(semitones int) Range {
	return Range{Low: r.Low + semitones, High: r.High + semitones}
}

// Weights drive candidate scoring. All are non-negative magnitudes; the
// sign of each term is fixed by the scorer.
type Weights struct {
	Displacement    float64 `json:"displacement" yaml:"displacement"`         // cost per semitone of total movement
	Tendency        float64 `json:"tendency" yaml:"tendency"`                 // bonus per resolved tendency tone
	ContraryOuter   float64 `json:"contrary_outer" yaml:"contrary_outer"`     // bonus when top and bass move apart
	MelodicPenalty  float64 `json:"melodic_penalty" yaml:"melodic_penalty"`   // cost per awkward melodic interval
	DoublingPenalty float64 `json:"doubling_penalty" yaml:"doubling_penalty"` // cost per doubled non-root tone
	CommonTone      float64 `json:"common_tone" yaml:"common_tone"`           // bonus per tone shared with the next chord
	Centering       float64 `json:"centering" yaml:"centering"`               // cost per semitone from range center, first chord only
}

// Config is the immutable optimizer configuration.
//
//   - Ranges: one band per voice, highest voice first; at least two voices.
//   - MaxSpacing: largest gap between adjacent upper voices (1..24).
//   - BassSpacing: largest gap between the two lowest voices (1..36).
//   - LeapThreshold: semitones above which the top voice leaps for direct motion (1..4).
//   - Workers: goroutines used for scoring large candidate sets (>= 1).
//   - ParallelThreshold: candidate count at which scoring fans out.
type Config struct {
	Ranges            []Range `json:"ranges" yaml:"ranges"`
	MaxSpacing        int     `json:"max_spacing" yaml:"max_spacing"`
	BassSpacing       int     `json:"bass_spacing" yaml:"bass_spacing"`
	LeapThreshold     int     `json:"leap_threshold" yaml:"leap_threshold"`
	Weights           Weights `json:"weights" yaml:"weights"`
	Workers           int     `json:"workers" yaml:"workers"`
	ParallelThreshold int     `json:"parallel_threshold" yaml:"parallel_threshold"`
}

// SATB returns the classic four-voice chorale ranges.
func SATB() []Range {
	return []Range{
		{Low: 60, High: 81}, // soprano C4-A5
		{Low: 55, High: 74}, // alto G3-D5
		{Low: 48, High: 69}, // tenor C3-A4
		{Low: 36, High: 62}, // bass C2-D4
	}
}

// DefaultConfig returns a four-voice chorale configuration.
func DefaultConfig() Config {
	return Config{
		Ranges:        SATB(),
		MaxSpacing:    12,
		BassSpacing:   24,
		LeapThreshold: 2,
		Weights: Weights{
			Displacement:    1.0,
			Tendency:        3.0,
			ContraryOuter:   1.5,
			MelodicPenalty:  4.0,
			DoublingPenalty: 1.0,
			CommonTone:      0.5,
			Centering:       0.5,
		},
		Workers:           4,
		ParallelThreshold: 512,
	}
}

// Voices is the fixed voice count.
func (c Config) Voices() int { return len(c.Ranges) }

// Validate checks every field against its documented range.
func (c Config) Validate() error {
	if len(c.Ranges) < 2 {
		return fmt.Errorf("%w: need at least two voices, got %d", ErrInvalidConfig, len(c.Ranges))
	}
	for i, r := range c.Ranges {
		if r.Low > r.High || r.Low < 0 || r.High > 127 {
			return fmt.Errorf("%w: voice %d range %d-%d", ErrInvalidConfig, i, r.Low, r.High)
		}
	}
	if c.MaxSpacing < 1 || c.MaxSpacing > 24 {
		return fmt.Errorf("%w: max spacing %d outside 1..24", ErrInvalidConfig, c.MaxSpacing)
	}
	if c.BassSpacing < 1 || c.BassSpacing > 36 {
		return fmt.Errorf("%w: bass spacing %d outside 1..36", ErrInvalidConfig, c.BassSpacing)
	}
	if c.LeapThreshold < 1 || c.LeapThreshold > 4 {
		return fmt.Errorf("%w: leap threshold %d outside 1..4", ErrInvalidConfig, c.LeapThreshold)
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"displacement": w.Displacement, "tendency": w.Tendency, "contrary_outer": w.ContraryOuter,
		"melodic_penalty": w.MelodicPenalty, "doubling_penalty": w.DoublingPenalty,
		"common_tone": w.CommonTone, "centering": w.Centering,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s is negative", ErrInvalidConfig, name)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", ErrInvalidConfig)
	}
	return nil
}

func (c Config) clone() Config {
	c.Ranges = append([]Range(nil), c.Ranges...)
	return c
}
