package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{"middle C", "C4", 60, false},
		{"A440", "A4", 69, false},
		{"sharp", "F#3", 54, false},
		{"flat negative octave", "Bb-1", 10, false},
		{"C flat crosses octave", "Cb4", 59, false},
		{"too short", "C", 0, true},
		{"bad letter", "H4", 0, true},
		{"missing octave", "C#", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePitch(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPitchName(t *testing.T) {
	assert.Equal(t, "C4", PitchName(60))
	assert.Equal(t, "A#2", PitchName(46))
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tones []int
		root  int
		bass  int
	}{
		{"major", "C", []int{0, 4, 7}, 0, 0},
		{"minor", "Dm", []int{2, 5, 9}, 2, 2},
		{"min spelling", "Dmin7", []int{2, 5, 9, 0}, 2, 2},
		{"dominant", "G7", []int{7, 11, 2, 5}, 7, 7},
		{"major seventh over third", "Cmaj7/E", []int{0, 4, 7, 11}, 0, 4},
		{"minor seventh", "Am7", []int{9, 0, 4, 7}, 9, 9},
		{"diminished", "Bdim", []int{11, 2, 5}, 11, 11},
		{"diminished seventh", "Bdim7", []int{11, 2, 5, 8}, 11, 11},
		{"suspended", "Csus4", []int{0, 5, 7}, 0, 0},
		{"major ninth", "Cmaj9", []int{0, 4, 7, 11, 2}, 0, 0},
		{"add nine", "Cadd9", []int{0, 4, 7, 2}, 0, 0},
		{"flat root", "Bbm", []int{10, 1, 5}, 10, 10},
		{"slash bass outside chord", "C/D", []int{0, 4, 7, 2}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseChord(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.tones, c.Tones)
			assert.Equal(t, tt.root, c.Root)
			assert.Equal(t, tt.bass, c.Bass)
			assert.Equal(t, tt.input, c.String())
		})
	}
}

func TestParseChordErrors(t *testing.T) {
	for _, input := range []string{"", "H7", "x", "C/Q"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseChord(input)
			assert.ErrorIs(t, err, ErrInvalidChord)
		})
	}
}

func TestChordPitches(t *testing.T) {
	c, err := ParseChord("C")
	require.NoError(t, err)
	assert.Equal(t, []int{60, 64, 67}, c.Pitches(4))

	inv, err := ParseChord("C/E")
	require.NoError(t, err)
	assert.Equal(t, []int{52, 60, 67}, inv.Pitches(4))

	g7, err := ParseChord("G7")
	require.NoError(t, err)
	assert.Equal(t, []int{55, 59, 62, 65}, g7.Pitches(3))
}

func TestChordProposalResolve(t *testing.T) {
	cMajor := MustScale(0, "major")
	two, five := 1, 4
	f := 5

	tests := []struct {
		name     string
		proposal ChordProposal
		tones    []int
		bass     int
		wantErr  bool
	}{
		{"degree triad", ChordProposal{Degree: &two}, []int{2, 5, 9}, 2, false},
		{"degree seventh", ChordProposal{Degree: &five, Seventh: true}, []int{7, 11, 2, 5}, 7, false},
		{"degree with bass", ChordProposal{Degree: &two, Bass: &f}, []int{2, 5, 9}, 5, false},
		{"symbol", ChordProposal{Symbol: "Am"}, []int{9, 0, 4}, 9, false},
		{"empty", ChordProposal{}, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.proposal.Resolve(cMajor)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tones, c.Tones)
			assert.Equal(t, tt.bass, c.Bass)
		})
	}
}
