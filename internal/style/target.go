package style

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidTarget = errors.New("invalid style target")

// Target is the statistical profile a melodic generator aims for in one
// voice over one section.
type Target struct {
	// Rhythm
	Density       float64 `json:"density" yaml:"density"`
	DurationCV    float64 `json:"duration_cv" yaml:"duration_cv"`
	RhythmVariety int     `json:"rhythm_variety" yaml:"rhythm_variety"`

	// Pitch motion
	StepRatio       float64 `json:"step_ratio" yaml:"step_ratio"`
	LeapProbability float64 `json:"leap_probability" yaml:"leap_probability"`
	DirectionChange float64 `json:"direction_change_prob" yaml:"direction_change_prob"`
	RunLength       float64 `json:"target_run_length" yaml:"target_run_length"`

	// Register
	PitchCenter int     `json:"pitch_center" yaml:"pitch_center"`
	PitchRange  int     `json:"pitch_range" yaml:"pitch_range"`
	ContourBias float64 `json:"contour_bias" yaml:"contour_bias"`

	// Color
	Chromaticism float64 `json:"chromaticism" yaml:"chromaticism"`
	Repetition   float64 `json:"repetition" yaml:"repetition"`

	// Phrasing
	PhraseBeats float64 `json:"phrase_length_beats" yaml:"phrase_length_beats"`
	PhraseArc   bool    `json:"phrase_arc" yaml:"phrase_arc"`
}

// Bounds is the pitch window [center - range/2, center + range/2].
func (t Target) Bounds() (lo, hi int) {
	return t.PitchCenter - t.PitchRange/2, t.PitchCenter + t.PitchRange/2
}

func (t Target) Validate() error {
	if t.Density <= 0 {
		return fmt.Errorf("%w: density %.3f must be positive", ErrInvalidTarget, t.Density)
	}
	if t.DurationCV < 0 {
		return fmt.Errorf("%w: duration_cv %.3f is negative", ErrInvalidTarget, t.DurationCV)
	}
	if t.RhythmVariety < 1 {
		return fmt.Errorf("%w: rhythm_variety %d below 1", ErrInvalidTarget, t.RhythmVariety)
	}
	for name, p := range map[string]float64{
		"step_ratio":            t.StepRatio,
		"leap_probability":      t.LeapProbability,
		"direction_change_prob": t.DirectionChange,
		"chromaticism":          t.Chromaticism,
		"repetition":            t.Repetition,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s %.3f outside 0..1", ErrInvalidTarget, name, p)
		}
	}
	if t.StepRatio+t.LeapProbability > 1+1e-9 {
		return fmt.Errorf("%w: step_ratio + leap_probability exceeds 1", ErrInvalidTarget)
	}
	if t.RunLength <= 0 {
		return fmt.Errorf("%w: target_run_length must be positive", ErrInvalidTarget)
	}
	if t.PitchRange < 1 {
		return fmt.Errorf("%w: pitch_range %d below 1", ErrInvalidTarget, t.PitchRange)
	}
	if lo, hi := t.Bounds(); lo < 0 || hi > 127 {
		return fmt.Errorf("%w: pitch window %d-%d outside 0..127", ErrInvalidTarget, lo, hi)
	}
	if t.ContourBias < -1 || t.ContourBias > 1 {
		return fmt.Errorf("%w: contour_bias %.3f outside -1..1", ErrInvalidTarget, t.ContourBias)
	}
	if t.PhraseBeats <= 0 {
		return fmt.Errorf("%w: phrase_length_beats must be positive", ErrInvalidTarget)
	}
	return nil
}

// Clamp pulls every field back into its valid range.
func (t Target) Clamp() Target {
	t.Density = math.Max(t.Density, 0.05)
	t.DurationCV = math.Max(t.DurationCV, 0)
	t.RhythmVariety = max(t.RhythmVariety, 1)
	t.StepRatio = clamp(t.StepRatio, 0, 1)
	t.LeapProbability = clamp(t.LeapProbability, 0, 1-t.StepRatio)
	t.DirectionChange = clamp(t.DirectionChange, 0, 1)
	t.RunLength = math.Max(t.RunLength, 0.5)
	t.PitchRange = min(max(t.PitchRange, 1), 127)
	t.PitchCenter = min(max(t.PitchCenter, t.PitchRange/2), 127-t.PitchRange/2)
	t.ContourBias = clamp(t.ContourBias, -1, 1)
	t.Chromaticism = clamp(t.Chromaticism, 0, 1)
	t.Repetition = clamp(t.Repetition, 0, 1)
	if t.PhraseBeats <= 0 {
		t.PhraseBeats = 4
	}
	return t
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

type field struct {
	get func(Target) float64
	set func(*Target, float64)
}

var fields = map[string]field{
	"density":               {func(t Target) float64 { return t.Density }, func(t *Target, v float64) { t.Density = v }},
	"duration_cv":           {func(t Target) float64 { return t.DurationCV }, func(t *Target, v float64) { t.DurationCV = v }},
	"rhythm_variety":        {func(t Target) float64 { return float64(t.RhythmVariety) }, func(t *Target, v float64) { t.RhythmVariety = int(math.Round(v)) }},
	"step_ratio":            {func(t Target) float64 { return t.StepRatio }, func(t *Target, v float64) { t.StepRatio = v }},
	"leap_probability":      {func(t Target) float64 { return t.LeapProbability }, func(t *Target, v float64) { t.LeapProbability = v }},
	"direction_change_prob": {func(t Target) float64 { return t.DirectionChange }, func(t *Target, v float64) { t.DirectionChange = v }},
	"target_run_length":     {func(t Target) float64 { return t.RunLength }, func(t *Target, v float64) { t.RunLength = v }},
	"pitch_center":          {func(t Target) float64 { return float64(t.PitchCenter) }, func(t *Target, v float64) { t.PitchCenter = int(math.Round(v)) }},
	"pitch_range":           {func(t Target) float64 { return float64(t.PitchRange) }, func(t *Target, v float64) { t.PitchRange = int(v) }},
	"contour_bias":          {func(t Target) float64 { return t.ContourBias }, func(t *Target, v float64) { t.ContourBias = v }},
	"chromaticism":          {func(t Target) float64 { return t.Chromaticism }, func(t *Target, v float64) { t.Chromaticism = v }},
	"repetition":            {func(t Target) float64 { return t.Repetition }, func(t *Target, v float64) { t.Repetition = v }},
	"phrase_length_beats":   {func(t Target) float64 { return t.PhraseBeats }, func(t *Target, v float64) { t.PhraseBeats = v }},
}

// Field reads a numeric field by its serialized name.
func (t Target) Field(name string) (float64, bool) {
	f, ok := fields[name]
	if !ok {
		return 0, false
	}
	return f.get(t), true
}

// WithField returns a copy with the named field set. Integer fields are
// rounded except pitch_range, which truncates.
func (t Target) WithField(name string, v float64) (Target, bool) {
	f, ok := fields[name]
	if !ok {
		return t, false
	}
	f.set(&t, v)
	return t, true
}

// FieldNames lists the names Field accepts.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
