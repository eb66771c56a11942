package style

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPresets(t *testing.T) {
	lib := Default()
	assert.Equal(t, []string{"bach", "chopin", "floyd"}, lib.Names())

	bach, ok := Preset("BACH")
	require.True(t, ok)
	assert.Equal(t, Target{
		Density: 3.0, DurationCV: 0.15, RhythmVariety: 2,
		StepRatio: 0.75, LeapProbability: 0.02, DirectionChange: 0.45, RunLength: 2.0,
		PitchCenter: 69, PitchRange: 12, ContourBias: 0,
		Chromaticism: 0, Repetition: 0.33,
		PhraseBeats: 4, PhraseArc: true,
	}, bach)

	floyd, ok := Preset("floyd")
	require.True(t, ok)
	assert.False(t, floyd.PhraseArc)
	assert.Equal(t, 25, floyd.PitchRange)

	_, ok = Preset("mozart")
	assert.False(t, ok)
	assert.Same(t, lib, Default())
}

func TestBounds(t *testing.T) {
	lo, hi := Target{PitchCenter: 67, PitchRange: 25}.Bounds()
	assert.Equal(t, 55, lo)
	assert.Equal(t, 79, hi)
}

func TestValidate(t *testing.T) {
	base, _ := Preset("chopin")
	tests := []struct {
		name   string
		mutate func(*Target)
	}{
		{"zero density", func(t *Target) { t.Density = 0 }},
		{"negative cv", func(t *Target) { t.DurationCV = -0.1 }},
		{"no rhythm variety", func(t *Target) { t.RhythmVariety = 0 }},
		{"step ratio above one", func(t *Target) { t.StepRatio = 1.2 }},
		{"step plus leap above one", func(t *Target) { t.StepRatio, t.LeapProbability = 0.8, 0.3 }},
		{"zero run length", func(t *Target) { t.RunLength = 0 }},
		{"window off the keyboard", func(t *Target) { t.PitchCenter = 125 }},
		{"contour bias", func(t *Target) { t.ContourBias = 2 }},
		{"zero phrase", func(t *Target) { t.PhraseBeats = 0 }},
	}

	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := base
			tt.mutate(&target)
			assert.True(t, errors.Is(target.Validate(), ErrInvalidTarget))
		})
	}
}

func TestClampRepairsTarget(t *testing.T) {
	broken := Target{
		Density: -1, StepRatio: 0.9, LeapProbability: 0.4, DirectionChange: 1.5,
		PitchCenter: 126, PitchRange: 20, Chromaticism: -0.2, Repetition: 3,
	}
	fixed := broken.Clamp()
	require.NoError(t, fixed.Validate())
	assert.InDelta(t, 0.1, fixed.LeapProbability, 1e-12)
	assert.Equal(t, 117, fixed.PitchCenter)
}

func TestFieldAccess(t *testing.T) {
	bach, _ := Preset("bach")

	v, ok := bach.Field("pitch_center")
	require.True(t, ok)
	assert.Equal(t, 69.0, v)

	moved, ok := bach.WithField("pitch_range", 8.7)
	require.True(t, ok)
	assert.Equal(t, 8, moved.PitchRange)
	assert.Equal(t, 12, bach.PitchRange, "receiver is a copy")

	_, ok = bach.WithField("tempo", 1)
	assert.False(t, ok)
	assert.Contains(t, FieldNames(), "direction_change_prob")
	assert.NotContains(t, FieldNames(), "phrase_arc")
}

func TestParseLibrary(t *testing.T) {
	_, err := ParseLibrary([]byte("styles: {}"))
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	_, err = ParseLibrary([]byte("styles: [1, 2"))
	assert.Error(t, err)

	lib, err := ParseLibrary([]byte(`
styles:
  Drone:
    density: 0.25
    duration_cv: 0
    rhythm_variety: 1
    step_ratio: 1
    leap_probability: 0
    direction_change_prob: 0.5
    target_run_length: 1
    pitch_center: 48
    pitch_range: 5
    phrase_length_beats: 16
`))
	require.NoError(t, err)
	drone, ok := lib.Get("drone")
	require.True(t, ok)
	assert.Equal(t, 48, drone.PitchCenter)
	assert.Len(t, lib.All(), 1)
}
