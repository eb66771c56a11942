package theory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScaleRejectsInvalidTemplates(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
	}{
		{"empty", nil},
		{"missing zero", []int{1, 3, 5}},
		{"repeated offset", []int{0, 2, 2, 5}},
		{"descending", []int{0, 4, 2}},
		{"beyond octave", []int{0, 7, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScale(0, "custom", tt.offsets)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplate))
		})
	}
}

func TestAllTemplatesAreValid(t *testing.T) {
	for _, name := range TemplateNames() {
		t.Run(name, func(t *testing.T) {
			s, err := FromTemplate(0, name)
			require.NoError(t, err)
			assert.True(t, s.Contains(0), "tonic is always a member")
		})
	}
}

func TestScaleSnap(t *testing.T) {
	cMajor := MustScale(0, "major")

	tests := []struct {
		name  string
		pitch int
		want  int
	}{
		{"in scale", 64, 64},
		{"tie C#", 61, 60},
		{"tie F#", 66, 65},
		{"tie G#", 68, 67},
		{"low register", 25, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cMajor.Snap(tt.pitch))
		})
	}
}

func TestScaleSnapPentatonicNearest(t *testing.T) {
	pent := MustScale(0, "pentatonic_major") // C D E G A
	assert.Equal(t, 64, pent.Snap(65), "F is one semitone from E")
	assert.Equal(t, 67, pent.Snap(66), "F# is closer to G than E")
	assert.Equal(t, 69, pent.Snap(70), "Bb is closer to A than C")
}

func TestScaleStep(t *testing.T) {
	cMajor := MustScale(0, "major")

	tests := []struct {
		name  string
		pitch int
		steps int
		want  int
	}{
		{"up one", 60, 1, 62},
		{"down one", 60, -1, 59},
		{"octave", 60, 7, 72},
		{"zero snaps", 61, 0, 60},
		{"off-scale start snaps first", 61, 1, 62},
		{"down two", 64, -2, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cMajor.Step(tt.pitch, tt.steps))
		})
	}
}

func TestScaleStepWithin(t *testing.T) {
	cMajor := MustScale(0, "major")
	assert.Equal(t, 72, cMajor.StepWithin(71, 3, 60, 72))
	assert.Equal(t, 60, cMajor.StepWithin(62, -4, 60, 72))
	assert.Equal(t, 65, cMajor.StepWithin(64, 1, 60, 72))
}

func TestScaleContainsAndDegree(t *testing.T) {
	ePhrygian, err := ParseScale("E", "phrygian")
	require.NoError(t, err)

	assert.True(t, ePhrygian.Contains(65), "F is the flat second")
	assert.False(t, ePhrygian.Contains(66))
	assert.Equal(t, "E phrygian", ePhrygian.String())

	deg, ok := ePhrygian.Degree(71)
	require.True(t, ok)
	assert.Equal(t, 4, deg)

	_, ok = ePhrygian.Degree(70)
	assert.False(t, ok)
}

func TestScaleTriadsAndSevenths(t *testing.T) {
	cMajor := MustScale(0, "major")

	tests := []struct {
		name  string
		chord Chord
		tones []int
	}{
		{"I", cMajor.Triad(0), []int{0, 4, 7}},
		{"ii", cMajor.Triad(1), []int{2, 5, 9}},
		{"vii", cMajor.Triad(6), []int{11, 2, 5}},
		{"V7", cMajor.Seventh(4), []int{7, 11, 2, 5}},
		{"wraps degree", cMajor.Triad(7), []int{0, 4, 7}},
		{"negative degree", cMajor.Triad(-1), []int{11, 2, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tones, tt.chord.Tones)
			assert.Equal(t, tt.tones[0], tt.chord.Root)
			assert.Equal(t, tt.tones[0], tt.chord.Bass)
		})
	}
}

func TestChromaticNeighbors(t *testing.T) {
	cMajor := MustScale(0, "major")
	assert.Equal(t, [2]int{59, 61}, cMajor.ChromaticNeighbors(60))
}

func TestPitchesInRange(t *testing.T) {
	cMajor := MustScale(0, "major")
	assert.Equal(t, []int{60, 62, 64, 65, 67, 69, 71, 72}, cMajor.Pitches(60, 72))
}
