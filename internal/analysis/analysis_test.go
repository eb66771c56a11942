package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(counterpoint.DefaultConfig(), tension.DefaultConfig(), entropy.DefaultConfig())
	require.NoError(t, err)
	return a
}

func chorale(t *testing.T) ([]score.Voicing, []float64) {
	t.Helper()
	opt, err := voicing.New(voicing.DefaultConfig())
	require.NoError(t, err)

	scale := theory.MustScale(0, "major")
	var chords []theory.Chord
	for _, d := range []int{0, 3, 4, 0} {
		chords = append(chords, scale.Triad(d))
	}
	voicings, err := opt.Progression(chords, nil)
	require.NoError(t, err)
	return voicings, []float64{0, 4, 8, 12}
}

func TestAnalyzeChoraleAgainstTargets(t *testing.T) {
	voicings, beats := chorale(t)
	s := tension.ScoreFromVoicings(voicings, []string{"s", "a", "t", "b"}, 4)

	target, err := tension.Target([]tension.Section{
		{Name: "Open", Beats: 8, Tension: 0.2},
		{Name: "Close", Beats: 8, Tension: 0.4},
	}, tension.DefaultConfig())
	require.NoError(t, err)
	sweet := entropy.SweetSpotTarget(entropy.DefaultConfig())

	report, err := newAnalyzer(t).Analyze(context.Background(), Input{
		Score:         s,
		Voicings:      voicings,
		Beats:         beats,
		Target:        target,
		EntropyTarget: &sweet,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Counterpoint.Steps)
	assert.Zero(t, report.Counterpoint.Count(counterpoint.KindParallelPerfect))
	assert.Zero(t, report.Counterpoint.Count(counterpoint.KindDirectPerfect))

	require.NotNil(t, report.TensionDistance)
	assert.GreaterOrEqual(t, *report.TensionDistance, 0.0)
	assert.InDelta(t, tension.Distance(report.Measured(), target), *report.TensionDistance, 1e-12)
	require.Len(t, report.Tension.Sections, 2)
	assert.Equal(t, "Open", report.Tension.Sections[0].Name)
	assert.Len(t, report.Curve, 16)

	require.NotNil(t, report.EntropyDistance)
	assert.Len(t, report.Entropy.Voices, 4)
	assert.Equal(t, "s", report.Entropy.Voices[0].Name)

	require.NotNil(t, report.Movement)
	assert.Equal(t, 3, report.Movement.Transitions)
}

func TestAnalyzeScoreWithoutTargets(t *testing.T) {
	upper := score.Voice{Name: "upper", Notes: []score.Note{
		{Pitch: 67, Onset: 1, Duration: 2},
		{Pitch: 69, Onset: 3, Duration: 2},
	}}
	lower := score.Voice{Name: "lower", Notes: []score.Note{
		{Pitch: 60, Onset: 1, Duration: 2},
		{Pitch: 62, Onset: 3, Duration: 2},
	}}

	report, err := newAnalyzer(t).Analyze(context.Background(), Input{
		Score: score.Score{Voices: []score.Voice{upper, lower}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Counterpoint.Count(counterpoint.KindParallelPerfect))
	assert.True(t, report.Counterpoint.HasErrors())
	assert.Nil(t, report.TensionDistance)
	assert.Nil(t, report.EntropyDistance)
	assert.Nil(t, report.Movement)
	assert.Empty(t, report.Tension.Sections)
	assert.Len(t, report.Entropy.Voices, 2)
}

func TestAnalyzeRejectsMismatchedBeats(t *testing.T) {
	voicings, _ := chorale(t)
	_, err := newAnalyzer(t).Analyze(context.Background(), Input{Voicings: voicings, Beats: []float64{0, 1}})
	assert.Error(t, err)
}

func TestNewAnalyzerValidatesConfig(t *testing.T) {
	cp := counterpoint.DefaultConfig()
	cp.BeatsPerBar = 0
	_, err := NewAnalyzer(cp, tension.DefaultConfig(), entropy.DefaultConfig())
	assert.ErrorIs(t, err, counterpoint.ErrInvalidConfig)

	ec := entropy.DefaultConfig()
	ec.Window = 0
	_, err = NewAnalyzer(counterpoint.DefaultConfig(), tension.DefaultConfig(), ec)
	assert.ErrorIs(t, err, entropy.ErrInvalidConfig)
}
