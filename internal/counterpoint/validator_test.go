package counterpoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(DefaultConfig())
	require.NoError(t, err)
	return v
}

func TestValidateMotionRules(t *testing.T) {
	tests := []struct {
		name     string
		voicings []score.Voicing
		beats    []float64
		kind     Kind
		step     int
		detail   string
	}{
		{
			name:     "parallel fifths",
			voicings: []score.Voicing{{67, 60}, {69, 62}},
			beats:    []float64{1, 3},
			kind:     KindParallelPerfect,
			step:     1,
			detail:   "parallel fifths",
		},
		{
			name:     "parallel octaves",
			voicings: []score.Voicing{{72, 60}, {74, 62}},
			beats:    []float64{1, 3},
			kind:     KindParallelPerfect,
			step:     1,
			detail:   "parallel octaves",
		},
		{
			name:     "direct octave with leaping top",
			voicings: []score.Voicing{{67, 60}, {74, 62}},
			beats:    []float64{1, 3},
			kind:     KindDirectPerfect,
			step:     1,
			detail:   "direct octaves with upper leap of 7",
		},
		{
			name:     "crossing reported where it begins",
			voicings: []score.Voicing{{64, 60}, {60, 62}, {59, 62}},
			beats:    []float64{1, 3, 5},
			kind:     KindVoiceCrossing,
			step:     1,
			detail:   "C4 below D4",
		},
		{
			name:     "strong-beat second",
			voicings: []score.Voicing{{62, 60}},
			beats:    []float64{0},
			kind:     KindUnresolvedDissonance,
			step:     0,
		},
		{
			name:     "neighbor tone on strong beat",
			voicings: []score.Voicing{{64, 60}, {65, 60}, {64, 60}},
			beats:    []float64{1, 2, 3},
			kind:     KindUnresolvedDissonance,
			step:     1,
		},
		{
			name:     "parallel thirds for three steps",
			voicings: []score.Voicing{{64, 60}, {66, 62}, {68, 64}},
			beats:    []float64{1, 3, 5},
			kind:     KindStaticVoicing,
			step:     2,
		},
		{
			name:     "wide upper spacing",
			voicings: []score.Voicing{{84, 60, 48}, {84, 60, 48}},
			beats:    []float64{1, 3},
			kind:     KindSpacingDrift,
			step:     0,
			detail:   "gap of 24 semitones",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newValidator(t).ValidateVoicings(tt.voicings, tt.beats)
			require.Len(t, report.Findings, 1, "findings: %+v", report.Findings)

			f := report.Findings[0]
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.kind.Severity(), f.Severity)
			assert.Equal(t, tt.step, f.Step)
			assert.Equal(t, tt.beats[tt.step], f.Beat)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, f.Detail)
			}
		})
	}
}

func TestPermittedDissonances(t *testing.T) {
	tests := []struct {
		name     string
		voicings []score.Voicing
	}{
		{"suspension prepared and resolved", []score.Voicing{{65, 57}, {65, 55}, {64, 55}}},
		{"passing fourth", []score.Voicing{{64, 60}, {65, 60}, {67, 60}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newValidator(t).ValidateVoicings(tt.voicings, []float64{1, 2, 3})
			assert.Empty(t, report.Findings)
		})
	}
}

func TestMelodicLeapWarnings(t *testing.T) {
	tests := []struct {
		name  string
		line  []int
		kinds []Kind
	}{
		{"leap recovered by contrary step", []int{60, 67, 65}, nil},
		{"leap continued upward", []int{60, 67, 69}, []Kind{KindUnfilledLeap}},
		{"tritone", []int{60, 66, 65}, []Kind{KindAwkwardLeap}},
		{"minor seventh unrecovered", []int{60, 70, 72}, []Kind{KindUnfilledLeap, KindAwkwardLeap}},
		{"leap into the last note", []int{62, 60, 67}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voicings := make([]score.Voicing, len(tt.line))
			for i, p := range tt.line {
				voicings[i] = score.Voicing{p}
			}
			report := newValidator(t).ValidateVoicings(voicings, []float64{1, 3, 5})

			var kinds []Kind
			for _, f := range report.Findings {
				kinds = append(kinds, f.Kind)
				assert.Equal(t, SeverityWarning, f.Severity)
			}
			assert.Equal(t, tt.kinds, kinds)
			assert.False(t, report.HasErrors())
		})
	}
}

func TestValidateScoreAlignsIndependentVoices(t *testing.T) {
	s := score.Score{Voices: []score.Voice{
		{Name: "upper", Notes: []score.Note{{Pitch: 67, Onset: 1, Duration: 2}, {Pitch: 69, Onset: 3, Duration: 2}}},
		{Name: "lower", Notes: []score.Note{{Pitch: 60, Onset: 1, Duration: 1}, {Pitch: 60, Onset: 2, Duration: 1}, {Pitch: 62, Onset: 3, Duration: 2}}},
	}}

	report := newValidator(t).ValidateScore(s)
	assert.Equal(t, 3, report.Steps)
	assert.Equal(t, 1, report.Count(KindParallelPerfect))
	assert.Equal(t, map[Kind]int{KindParallelPerfect: 1}, report.ByKind())
	assert.Equal(t, 3.0, report.Errors()[0].Beat)
	assert.Equal(t, []int{0, 1}, report.Errors()[0].Voices)
}

func TestFindingsAreOrderedByBeat(t *testing.T) {
	// crossing at beat 3, a leap at beat 5, parallel octaves at beat 7
	voicings := []score.Voicing{{64, 60}, {60, 62}, {74, 62}, {76, 64}}
	report := newValidator(t).ValidateVoicings(voicings, []float64{1, 3, 5, 7})

	require.NotEmpty(t, report.Findings)
	for i := 1; i < len(report.Findings); i++ {
		assert.LessOrEqual(t, report.Findings[i-1].Beat, report.Findings[i].Beat)
	}
	assert.True(t, report.HasErrors())
	assert.Equal(t, 1, report.Count(KindVoiceCrossing))
	assert.Equal(t, 1, report.Count(KindParallelPerfect))
}

func TestExtraRulesRunAfterDefaults(t *testing.T) {
	highNote := Rule{
		Name: "ceiling",
		Check: func(a *Analysis, _ Config) []Finding {
			var out []Finding
			for i := range a.Steps {
				if a.Pitch(i, 0) > 79 {
					out = append(out, newFinding(KindSpacingDrift, a, i, "above ceiling", 0))
				}
			}
			return out
		},
	}

	v, err := NewValidator(DefaultConfig(), highNote)
	require.NoError(t, err)
	assert.Equal(t, "ceiling", v.Rules()[len(v.Rules())-1])

	report := v.ValidateVoicings([]score.Voicing{{81, 69}}, []float64{1})
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "above ceiling", report.Findings[0].Detail)
}

func TestOptimizerOutputHasNoForbiddenMotion(t *testing.T) {
	o, err := voicing.New(voicing.DefaultConfig())
	require.NoError(t, err)

	c := theory.MustScale(0, "major")
	chords := []theory.Chord{c.Triad(0), c.Triad(3), c.Triad(1), c.Seventh(4), c.Triad(5), c.Triad(3), c.Seventh(4), c.Triad(0)}
	voicings, err := o.Progression(chords, nil)
	require.NoError(t, err)

	report := newValidator(t).ValidateVoicings(voicings, nil)
	assert.Zero(t, report.Count(KindParallelPerfect))
	assert.Zero(t, report.Count(KindDirectPerfect))
	assert.Zero(t, report.Count(KindVoiceCrossing))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero bar", func(c *Config) { c.BeatsPerBar = 0 }},
		{"strong beat outside bar", func(c *Config) { c.StrongBeats = []float64{4} }},
		{"step limit", func(c *Config) { c.StepLimit = 0 }},
		{"leap below step", func(c *Config) { c.LeapThreshold = 1 }},
		{"static run", func(c *Config) { c.StaticRunLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewValidator(cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}
