package entropy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
)

func line(name string, pitches ...int) score.Voice {
	v := score.Voice{Name: name}
	for i, p := range pitches {
		v.Notes = append(v.Notes, score.Note{Pitch: p, Onset: float64(i), Duration: 1})
	}
	return v
}

func TestShannon(t *testing.T) {
	tests := []struct {
		name string
		xs   []int
		want float64
	}{
		{"empty", nil, 0},
		{"constant", []int{3, 3, 3, 3}, 0},
		{"fair coin", []int{0, 1}, 1},
		{"four symbols", []int{0, 1, 2, 3}, 2},
		{"skewed", []int{0, 0, 0, 1}, -(0.75*math.Log2(0.75) + 0.25*math.Log2(0.25))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Shannon(tt.xs), 1e-12)
		})
	}
}

func TestConditionalEntropyOfCycleIsZero(t *testing.T) {
	assert.InDelta(t, 0, ConditionalEntropy([]int{0, 4, 7, 0, 4, 7, 0}), 1e-12)
	assert.InDelta(t, 1, ConditionalEntropy([]int{0, 0, 1, 1, 0}), 1e-12)
	assert.Zero(t, ConditionalEntropy([]int{5}))
}

func TestMutualInformation(t *testing.T) {
	assert.InDelta(t, 1, MutualInformation([]int{0, 1, 0, 1}, []int{0, 1, 0, 1}), 1e-12)
	assert.InDelta(t, 0, MutualInformation([]int{0, 0, 1, 1}, []int{0, 1, 0, 1}), 1e-12)
}

func TestAnalyzeScaleRun(t *testing.T) {
	s := score.Score{Voices: []score.Voice{line("melody", 60, 62, 64, 65, 67, 69, 71, 72)}}

	p, err := Analyze(s, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, p.Voices, 1)

	v := p.Voices[0]
	assert.Equal(t, "melody", v.Name)
	assert.Equal(t, 8, v.Notes)
	assert.InDelta(t, 2.75, v.Pitch, 1e-12)
	assert.InDelta(t, 0, v.Transition, 1e-12, "every pitch class has one successor")
	assert.InDelta(t, 0, v.Rhythm, 1e-12)
	assert.InDelta(t, math.Log2(7), p.PitchBigram, 1e-12)

	assert.Equal(t, TooPredictable, p.Assessment)
	assert.InDelta(t, 1, p.Predictability, 1e-12)
	assert.Nil(t, p.Pairs, "a single voice has no pairs")
	assert.Len(t, p.Windows, 8)
	assert.InDelta(t, 2.75, p.Windows[0].Pitch, 1e-12)
}

func TestAnalyzeMutualInformationOfTransposedVoice(t *testing.T) {
	upper := line("upper", 67, 69, 71, 67, 72, 74)
	lower := line("lower", 60, 62, 64, 60, 65, 67)

	p, err := Analyze(score.Score{Voices: []score.Voice{upper, lower}}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, p.Pairs, 1)

	pair := p.Pairs[0]
	assert.Equal(t, "upper", pair.Upper)
	assert.Equal(t, "lower", pair.Lower)
	assert.Equal(t, 6, pair.Samples)
	assert.InDelta(t, Shannon([]int{0, 2, 4, 0, 5, 7}), pair.Bits, 1e-12, "a transposition is fully determined")
	assert.InDelta(t, pair.Bits, p.MutualInformation, 1e-12)
}

func TestAnalyzeSkipsShortJointSamples(t *testing.T) {
	s := score.Score{Voices: []score.Voice{line("a", 60, 62, 64), line("b", 48, 50, 52)}}
	p, err := Analyze(s, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, p.MutualInformation)
	assert.Empty(t, p.Pairs)
}

func TestAnalyzeUnsortedAndUnnamedVoices(t *testing.T) {
	v := score.Voice{Notes: []score.Note{
		{Pitch: 64, Onset: 2, Duration: 1},
		{Pitch: 60, Onset: 0, Duration: 1},
		{Pitch: 62, Onset: 1, Duration: 1},
	}}
	p, err := Analyze(score.Score{Voices: []score.Voice{v}}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "voice_0", p.Voices[0].Name)
	// sorted 60 62 64: two major-second steps
	assert.InDelta(t, 0, p.Voices[0].Interval, 1e-12)
	assert.Equal(t, 60, v.Notes[1].Pitch, "input is not reordered")
}

func TestAssess(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		bits float64
		want Assessment
	}{
		{1.0, TooPredictable},
		{2.3, Balanced},
		{2.75, Balanced},
		{3.2, Balanced},
		{3.5, TooRandom},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Assess(tt.bits, cfg), "%.2f bits", tt.bits)
	}
}

func TestDistance(t *testing.T) {
	cfg := DefaultConfig()
	p := Profile{Transition: 2.0, Rhythm: 1.0}

	assert.InDelta(t, 0.75, Distance(p, SweetSpotTarget(cfg)), 1e-12)
	assert.Zero(t, Distance(p, Target{}))

	transition, rhythm := 2.0, 2.0
	assert.InDelta(t, math.Sqrt(0.5), Distance(p, Target{Transition: &transition, Rhythm: &rhythm}), 1e-12)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweetSpotHigh = 1
	_, err := Analyze(score.Score{}, cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	cfg = DefaultConfig()
	cfg.Window = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}
