package tension

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
)

func buildClimax() []Section {
	return []Section{
		{Name: "Intro", Beats: 40, Tension: 0.10, Transition: TransitionEased},
		{Name: "Build", Beats: 48, Tension: 0.55, Transition: TransitionEased},
		{Name: "Climax", Beats: 48, Tension: 0.85, Transition: TransitionAbrupt},
	}
}

func TestTargetJumpsOnlyAtAbruptBoundary(t *testing.T) {
	curve, err := Target(buildClimax(), DefaultConfig())
	require.NoError(t, err)

	values := curve.Values()
	require.Len(t, values, 136)
	assert.True(t, curve.Prescribed())

	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "curve must not fall at beat %d", i)
	}

	for i := 1; i < 88; i++ {
		assert.Less(t, values[i]-values[i-1], 0.02, "Intro to Build must be smooth at beat %d", i)
	}

	assert.InDelta(t, 0.55, curve.At(87), 1e-9)
	assert.InDelta(t, 0.85, curve.At(88), 1e-9)
	assert.InDelta(t, 0.55, curve.At(87.999), 1e-9)
}

func TestTargetHitsSectionMidpoints(t *testing.T) {
	sections := buildClimax()
	curve, err := Target(sections, DefaultConfig())
	require.NoError(t, err)

	start := 0.0
	for _, s := range sections {
		assert.InDelta(t, s.Tension, curve.At(start+s.Beats/2), 1e-9, s.Name)
		start += s.Beats
	}
	assert.InDelta(t, 0.10, curve.At(-5), 1e-9)
	assert.InDelta(t, 0.85, curve.At(500), 1e-9)
}

func TestTargetTransitionShapes(t *testing.T) {
	tests := []struct {
		name       string
		transition Transition
		at         float64
		want       float64
	}{
		{"linear quarter", TransitionLinear, 7.5, 0.25},
		{"linear midpoint", TransitionLinear, 10, 0.5},
		{"eased quarter", TransitionEased, 7.5, (1 - math.Cos(math.Pi/4)) / 2},
		{"eased midpoint", TransitionEased, 10, 0.5},
		{"abrupt before boundary", TransitionAbrupt, 9.5, 0},
		{"abrupt at boundary", TransitionAbrupt, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve, err := Target([]Section{
				{Name: "low", Beats: 10, Tension: 0},
				{Name: "high", Beats: 10, Tension: 1, Transition: tt.transition},
			}, DefaultConfig())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, curve.At(tt.at), 1e-9)
		})
	}
}

func TestTargetRejectsBadSections(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		want     error
	}{
		{"empty", nil, ErrEmptySections},
		{"zero beats", []Section{{Name: "a", Beats: 0, Tension: 0.5}}, ErrInvalidSection},
		{"tension above one", []Section{{Name: "a", Beats: 4, Tension: 1.5}}, ErrInvalidSection},
		{"unknown transition", []Section{{Name: "a", Beats: 4, Tension: 0.5, Transition: "wobbly"}}, ErrInvalidSection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Target(tt.sections, DefaultConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestTransitionAliases(t *testing.T) {
	tests := []struct {
		in   string
		want Transition
	}{
		{"", TransitionEased},
		{"smooth", TransitionEased},
		{"Eased", TransitionEased},
		{"linear", TransitionLinear},
		{"sudden", TransitionAbrupt},
		{"abrupt", TransitionAbrupt},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionDecoding(t *testing.T) {
	var s Section
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Intro","beats":16,"tension":0.2,"transition":"sudden"}`), &s))
	assert.Equal(t, TransitionAbrupt, s.Transition)

	err := json.Unmarshal([]byte(`{"name":"Intro","beats":16,"tension":0.2,"transition":"bouncy"}`), &s)
	assert.True(t, errors.Is(err, ErrInvalidSection))

	wrapped := []byte(`
sections:
  - name: Intro
    beats: 16
    tension: 0.1
  - name: Peak
    beats: 8
    tension: 0.9
    transition: smooth
`)
	sections, err := ParseSections(wrapped)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, TransitionEased, sections[1].Transition)
	assert.Equal(t, 24.0, TotalBeats(sections))

	bare := []byte(`
- {name: A, beats: 4, tension: 0.3, transition: linear}
- {name: B, beats: 4, tension: 0.6, transition: sudden}
`)
	sections, err = ParseSections(bare)
	require.NoError(t, err)
	assert.Equal(t, TransitionAbrupt, sections[1].Transition)

	_, err = ParseSections([]byte(`- {name: A, beats: -1, tension: 0.3}`))
	assert.True(t, errors.Is(err, ErrInvalidSection))
}

func TestCurveQueries(t *testing.T) {
	curve, err := Target(buildClimax(), DefaultConfig())
	require.NoError(t, err)

	name, ok := curve.SectionAt(45)
	require.True(t, ok)
	assert.Equal(t, "Build", name)

	name, _ = curve.SectionAt(88)
	assert.Equal(t, "Climax", name)

	start, end, ok := curve.SectionRange("Climax")
	require.True(t, ok)
	assert.Equal(t, 88.0, start)
	assert.Equal(t, 136.0, end)

	_, _, ok = curve.SectionRange("Coda")
	assert.False(t, ok)

	assert.InDelta(t, 0.85, curve.Mean(88, 136), 1e-9)
	assert.InDelta(t, 0.10, curve.Mean(0, 20), 1e-9)
	assert.Equal(t, 136.0, curve.Duration())
	assert.InDelta(t, 120.0, curve.DurationSeconds(68), 1e-9)
	assert.InDelta(t, 0.85, curve.Peak().Combined, 1e-9)
	assert.Equal(t, 88.0, curve.Peak().Beat)
	assert.Equal(t, Components{}, curve.Components(100), "target curves prescribe only the combined value")

	summary := curve.Summary()
	require.Len(t, summary.Sections, 3)
	assert.InDelta(t, 0.10, summary.Min, 1e-9)
	assert.InDelta(t, 0.85, summary.Max, 1e-9)
	assert.Contains(t, summary.String(), "Climax")
}

func TestResectionRoundTrip(t *testing.T) {
	sections := buildClimax()
	curve, err := Target(sections, DefaultConfig())
	require.NoError(t, err)

	resectioned := Resection(curve, sections)
	require.Len(t, resectioned, len(sections))
	assert.InDelta(t, 0.85, resectioned[2].Tension, 1e-9)
	assert.Greater(t, resectioned[0].Tension, 0.10, "Intro mean includes the ramp toward Build")

	again, err := Target(resectioned, DefaultConfig())
	require.NoError(t, err)

	assert.Less(t, Distance(curve, again), 0.05)
	assert.Greater(t, correlation(curve.Values(), again.Values()), 0.95)
}

func correlation(a, b []float64) float64 {
	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(len(a))
	mb /= float64(len(b))
	var cov, va, vb float64
	for i := range a {
		cov += (a[i] - ma) * (b[i] - mb)
		va += (a[i] - ma) * (a[i] - ma)
		vb += (b[i] - mb) * (b[i] - mb)
	}
	return cov / math.Sqrt(va*vb)
}

func TestDistance(t *testing.T) {
	zeros := FromValues([]float64{0, 0, 0, 0}, 1)
	ones := FromValues([]float64{1, 1, 1}, 1)
	assert.InDelta(t, 1.0, Distance(zeros, ones), 1e-9)
	assert.InDelta(t, 0.0, Distance(zeros, zeros), 1e-9)
}

func TestMeasureHeldTriad(t *testing.T) {
	s := score.Score{Voices: []score.Voice{
		{Name: "s", Notes: []score.Note{{Pitch: 67, Onset: 0, Duration: 2}}},
		{Name: "a", Notes: []score.Note{{Pitch: 64, Onset: 0, Duration: 2}}},
		{Name: "b", Notes: []score.Note{{Pitch: 60, Onset: 0, Duration: 2}}},
	}}

	curve, err := Measure(s, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 2, curve.Len())
	assert.False(t, curve.Prescribed())

	first := curve.Components(0)
	assert.InDelta(t, 0.313629, first.Harmonic, 1e-5)
	assert.InDelta(t, 0.4/3, first.Dissonance, 1e-9)
	assert.InDelta(t, 0, first.Melodic, 1e-9)
	assert.InDelta(t, 7.0/48, first.Registral, 1e-9)
	assert.InDelta(t, 3.0/8, first.Density, 1e-9)
	assert.InDelta(t, first.Combine(DefaultWeights()), curve.At(0.5), 1e-9)

	second := curve.Components(1)
	assert.InDelta(t, 0, second.Density, 1e-9, "no onsets in the second window")
	assert.InDelta(t, 0, second.Melodic, 1e-9, "held notes do not move")
	assert.Less(t, curve.At(1), curve.At(0))
}

func TestMeasureMelodicAndHarmonicExtremes(t *testing.T) {
	octaveLeap := score.Score{Voices: []score.Voice{
		{Notes: []score.Note{{Pitch: 60, Onset: 0, Duration: 1}, {Pitch: 72, Onset: 1, Duration: 1}}},
	}}
	curve, err := Measure(octaveLeap, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, curve.Components(1).Melodic, 1e-9)
	assert.InDelta(t, 0.0, curve.Components(0).Harmonic, 1e-9, "the tonic alone is fully relaxed")

	cluster := score.Score{Voices: []score.Voice{
		{Notes: []score.Note{{Pitch: 60, Duration: 1}}},
		{Notes: []score.Note{{Pitch: 61, Duration: 1}}},
	}}
	curve, err = Measure(cluster, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, curve.Components(0).Dissonance, 1e-9)
}

func TestMeasureStepsMatchesBlockChords(t *testing.T) {
	voicings := []score.Voicing{{67, 64, 60}, {69, 65, 62}}
	curve, err := MeasureSteps(voicings, []string{"s", "a", "b"}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, curve.Len())
	// every voice moves by one or two semitones
	assert.InDelta(t, (2.0+1.0+2.0)/3/12, curve.Components(1).Melodic, 1e-9)
}

func TestFormPresets(t *testing.T) {
	long := LongFormBuild(76, 3.5)
	assert.Equal(t, 266.0, TotalBeats(long))
	assert.Equal(t, 53.0, long[0].Beats)
	assert.Equal(t, 41.0, long[4].Beats)

	for _, name := range FormNames() {
		sections, ok := Form(name)
		require.True(t, ok, name)
		_, err := Target(sections, DefaultConfig())
		assert.NoError(t, err, name)
	}

	_, ok := Form("sonata")
	assert.False(t, ok)

	arch, ok := FormAt("arch", 60, 2)
	require.True(t, ok)
	assert.Equal(t, 120.0, TotalBeats(arch))
	assert.Equal(t, 42.0, arch[0].Beats)
	assert.Equal(t, 36.0, arch[2].Beats)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Harmonic = 0.5
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultConfig()
	cfg.Window = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultConfig()
	cfg.FourierCoefficient = 9
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}
