package entropy

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidConfig = errors.New("invalid entropy config")

// Config parameterizes the entropy measurements.
//
//   - Window / Resolution: sliding window width and hop, in beats.
//   - SweetSpotLow / SweetSpotHigh: transition entropy band, in bits, judged balanced.
//   - MinJointSamples: simultaneous samples a voice pair needs before its
//     mutual information counts.
//   - MinWindowNotes: onsets a window needs before it is measured.
//   - RhythmPrecision: decimal places inter-onset intervals are rounded to.
type Config struct {
	Window          float64 `json:"window" yaml:"window"`
	Resolution      float64 `json:"resolution" yaml:"resolution"`
	SweetSpotLow    float64 `json:"sweet_spot_low" yaml:"sweet_spot_low"`
	SweetSpotHigh   float64 `json:"sweet_spot_high" yaml:"sweet_spot_high"`
	MinJointSamples int     `json:"min_joint_samples" yaml:"min_joint_samples"`
	MinWindowNotes  int     `json:"min_window_notes" yaml:"min_window_notes"`
	RhythmPrecision int     `json:"rhythm_precision" yaml:"rhythm_precision"`
}

func DefaultConfig() Config {
	return Config{
		Window:          8,
		Resolution:      1,
		SweetSpotLow:    2.3,
		SweetSpotHigh:   3.2,
		MinJointSamples: 5,
		MinWindowNotes:  3,
		RhythmPrecision: 3,
	}
}

func (c Config) Validate() error {
	if c.Window <= 0 || c.Resolution <= 0 {
		return fmt.Errorf("%w: window and resolution must be positive", ErrInvalidConfig)
	}
	if c.SweetSpotLow < 0 || c.SweetSpotHigh <= c.SweetSpotLow {
		return fmt.Errorf("%w: sweet spot %.2f-%.2f", ErrInvalidConfig, c.SweetSpotLow, c.SweetSpotHigh)
	}
	if c.MinJointSamples < 2 || c.MinWindowNotes < 1 {
		return fmt.Errorf("%w: sample minimums too small", ErrInvalidConfig)
	}
	if c.RhythmPrecision < 0 || c.RhythmPrecision > 6 {
		return fmt.Errorf("%w: rhythm precision %d outside 0..6", ErrInvalidConfig, c.RhythmPrecision)
	}
	return nil
}

// MaxPitchEntropy is log2(12), the entropy of a uniform pitch-class draw.
const MaxPitchEntropy = 3.584962500721156

// Shannon returns H = -sum p log2 p over the symbols of xs, in bits.
func Shannon[T comparable](xs []T) float64 {
	if len(xs) == 0 {
		return 0
	}
	counts := make(map[T]int)
	for _, x := range xs {
		counts[x]++
	}
	// summing in a fixed order keeps the float result reproducible
	ns := make([]int, 0, len(counts))
	for _, n := range counts {
		ns = append(ns, n)
	}
	sort.Ints(ns)

	total := float64(len(xs))
	h := 0.0
	for _, n := range ns {
		p := float64(n) / total
		h -= p * math.Log2(p)
	}
	return h
}

// ConditionalEntropy is H(next | previous) over consecutive symbols.
func ConditionalEntropy[T comparable](xs []T) float64 {
	if len(xs) < 2 {
		return 0
	}
	bigrams := make([][2]T, len(xs)-1)
	for i := range bigrams {
		bigrams[i] = [2]T{xs[i], xs[i+1]}
	}
	return math.Max(0, Shannon(bigrams)-Shannon(xs[:len(xs)-1]))
}

// MutualInformation is H(X) + H(Y) - H(X,Y) over paired samples.
func MutualInformation[T comparable](xs, ys []T) float64 {
	n := min(len(xs), len(ys))
	joint := make([][2]T, n)
	for i := 0; i < n; i++ {
		joint[i] = [2]T{xs[i], ys[i]}
	}
	return math.Max(0, Shannon(xs[:n])+Shannon(ys[:n])-Shannon(joint))
}
