package tension

import (
	"errors"
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

var ErrInvalidConfig = errors.New("invalid tension config")

// Weights combine the five sub-metrics. They must sum to 1.
type Weights struct {
	Harmonic   float64 `json:"harmonic" yaml:"harmonic"`
	Dissonance float64 `json:"dissonance" yaml:"dissonance"`
	Melodic    float64 `json:"melodic" yaml:"melodic"`
	Registral  float64 `json:"registral" yaml:"registral"`
	Density    float64 `json:"density" yaml:"density"`
}

func DefaultWeights() Weights {
	return Weights{Harmonic: 0.30, Dissonance: 0.25, Melodic: 0.20, Registral: 0.10, Density: 0.15}
}

func (w Weights) sum() float64 {
	return w.Harmonic + w.Dissonance + w.Melodic + w.Registral + w.Density
}

// Components is the five-dimensional tension vector, each in [0,1].
type Components struct {
	Harmonic   float64 `json:"harmonic"`
	Dissonance float64 `json:"dissonance"`
	Melodic    float64 `json:"melodic"`
	Registral  float64 `json:"registral"`
	Density    float64 `json:"density"`
}

// Combine applies w.
func (c Components) Combine(w Weights) float64 {
	return c.Harmonic*w.Harmonic + c.Dissonance*w.Dissonance + c.Melodic*w.Melodic +
		c.Registral*w.Registral + c.Density*w.Density
}

// Config parameterizes measurement and target rendering.
//
//   - Window: measurement window width in beats (> 0).
//   - Resolution: beat spacing of rendered target samples (> 0).
//   - Tonic: pitch class the harmonic phase is measured against (0..11).
//   - FourierCoefficient: DFT bin for diatonic structure (1..6, 5 = circle of fifths).
//   - MagnitudeWeight: share of harmonic tension from DFT magnitude vs phase (0..1).
//   - RegisterSpan, MelodicCap: semitones mapping to full registral / melodic tension.
//   - DensityCap: onsets per beat mapping to full density.
type Config struct {
	Weights            Weights    `json:"weights" yaml:"weights"`
	Window             float64    `json:"window" yaml:"window"`
	Resolution         float64    `json:"resolution" yaml:"resolution"`
	Tonic              int        `json:"tonic" yaml:"tonic"`
	FourierCoefficient int        `json:"fourier_coefficient" yaml:"fourier_coefficient"`
	MagnitudeWeight    float64    `json:"magnitude_weight" yaml:"magnitude_weight"`
	RegisterSpan       float64    `json:"register_span" yaml:"register_span"`
	MelodicCap         float64    `json:"melodic_cap" yaml:"melodic_cap"`
	DensityCap         float64    `json:"density_cap" yaml:"density_cap"`
	Roughness          [7]float64 `json:"roughness" yaml:"roughness"`
}

func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights(),
		Window:             1,
		Resolution:         1,
		FourierCoefficient: 5,
		MagnitudeWeight:    0.6,
		RegisterSpan:       48,
		MelodicCap:         12,
		DensityCap:         8,
		Roughness:          theory.DefaultRoughness,
	}
}

func (c Config) Validate() error {
	w := c.Weights
	for _, v := range []float64{w.Harmonic, w.Dissonance, w.Melodic, w.Registral, w.Density} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight", ErrInvalidConfig)
		}
	}
	if math.Abs(w.sum()-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.3f, want 1", ErrInvalidConfig, w.sum())
	}
	if c.Window <= 0 || c.Resolution <= 0 {
		return fmt.Errorf("%w: window and resolution must be positive", ErrInvalidConfig)
	}
	if c.Tonic < 0 || c.Tonic > 11 {
		return fmt.Errorf("%w: tonic %d outside 0..11", ErrInvalidConfig, c.Tonic)
	}
	if c.FourierCoefficient < 1 || c.FourierCoefficient > 6 {
		return fmt.Errorf("%w: fourier coefficient %d outside 1..6", ErrInvalidConfig, c.FourierCoefficient)
	}
	if c.MagnitudeWeight < 0 || c.MagnitudeWeight > 1 {
		return fmt.Errorf("%w: magnitude weight outside 0..1", ErrInvalidConfig)
	}
	if c.RegisterSpan <= 0 || c.MelodicCap <= 0 || c.DensityCap <= 0 {
		return fmt.Errorf("%w: caps must be positive", ErrInvalidConfig)
	}
	for _, r := range c.Roughness {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: roughness values must lie in 0..1", ErrInvalidConfig)
		}
	}
	return nil
}
