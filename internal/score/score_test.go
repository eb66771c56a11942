package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoicePitchAt(t *testing.T) {
	v := Voice{Name: "soprano", Notes: []Note{
		{Pitch: 72, Onset: 0, Duration: 2},
		{Pitch: 74, Onset: 2, Duration: 1},
		{Pitch: 76, Onset: 4, Duration: 1},
	}}

	tests := []struct {
		name string
		beat float64
		want int
	}{
		{"onset", 0, 72},
		{"held", 1.5, 72},
		{"boundary belongs to next note", 2, 74},
		{"gap is a rest", 3.5, Rest},
		{"after end", 5, Rest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.PitchAt(tt.beat))
		})
	}
}

func TestAlignUnionOfOnsets(t *testing.T) {
	upper := Voice{Name: "upper", Notes: []Note{
		{Pitch: 72, Onset: 0, Duration: 1},
		{Pitch: 71, Onset: 1, Duration: 1},
	}}
	lower := Voice{Name: "lower", Notes: []Note{
		{Pitch: 60, Onset: 0, Duration: 2},
		{Pitch: 55, Onset: 2, Duration: 1},
	}}

	steps := Align([]Voice{upper, lower})
	require.Len(t, steps, 3)

	assert.Equal(t, []int{72, 60}, steps[0].Pitches)
	assert.Equal(t, []int{71, 60}, steps[1].Pitches, "lower voice is held")
	assert.Equal(t, []int{Rest, 55}, steps[2].Pitches)
	assert.False(t, steps[2].Sounding(0))
	assert.Equal(t, 2.0, steps[2].Beat)
}

func TestScoreQueries(t *testing.T) {
	s := Score{Voices: []Voice{
		{Name: "a", Notes: []Note{{Pitch: 60, Onset: 0, Duration: 4}}},
		{Name: "b", Notes: []Note{{Pitch: 48, Onset: 1, Duration: 1}, {Pitch: 50, Onset: 5, Duration: 1.5}}},
	}}

	assert.Equal(t, 6.5, s.End())
	assert.Equal(t, 3, s.NoteCount())

	b, ok := s.Voice("b")
	require.True(t, ok)
	assert.Equal(t, []int{48, 50}, b.Pitches())
	assert.Equal(t, []float64{1, 5}, b.Onsets())

	_, ok = s.Voice("missing")
	assert.False(t, ok)

	notes := s.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, 60, notes[0].Pitch)
}

func TestVoicingOrdering(t *testing.T) {
	a := Voicing{72, 67, 64, 60}
	b := Voicing{72, 67, 65, 60}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a.Clone()))
	assert.Equal(t, 72, a.Top())
	assert.Equal(t, 60, a.Bass())

	steps := FromVoicings([]Voicing{a, b}, []float64{0, 4})
	require.Len(t, steps, 2)
	assert.Equal(t, 4.0, steps[1].Beat)
	assert.Equal(t, []int{72, 67, 65, 60}, steps[1].Pitches)
}
