package melody

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern names an accompaniment figure that spreads a voicing over time
// in sixteenth notes.
type Pattern string

const (
	// PatternPrelude holds the bass and cycles the upper voices low, middle,
	// high, middle on every beat, as in the C major prelude of the
	// Well-Tempered Clavier.
	PatternPrelude Pattern = "bwv846"
	// PatternAscending runs bass then upper voices upward and starts over.
	PatternAscending Pattern = "ascending"
	// PatternAlberti holds the bass over low, high, middle, high.
	PatternAlberti Pattern = "alberti"
)

const sixteenth = 0.25

func Patterns() []Pattern {
	return []Pattern{PatternPrelude, PatternAscending, PatternAlberti}
}

func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown pattern %q", ErrInvalidPattern, s)
}

// Arpeggiate renders a voicing (top first, bass last) as pattern notes over
// beats, starting at onset 0. Held bass notes last the whole span.
func Arpeggiate(p Pattern, v score.Voicing, beats float64) ([]score.Note, error) {
	if len(v) < 2 {
		return nil, fmt.Errorf("%w: needs a bass and at least one upper voice", ErrInvalidPattern)
	}
	if beats <= 0 {
		return nil, nil
	}
	bass := v.Bass()
	upper := append([]int(nil), v[:len(v)-1]...)
	sort.Ints(upper)

	var figure []int
	held := true
	switch p {
	case PatternPrelude:
		for len(upper) < 3 {
			upper = append(upper, upper[len(upper)-1]+theory.Octave)
		}
		figure = []int{upper[0], upper[1], upper[2], upper[1]}
	case PatternAlberti:
		low, mid, high := upper[0], upper[len(upper)/2], upper[len(upper)-1]
		if len(upper) == 1 {
			high = low + theory.Octave
		}
		figure = []int{low, high, mid, high}
	case PatternAscending:
		figure = append([]int{bass}, upper...)
		held = false
	default:
		return nil, fmt.Errorf("%w: unknown pattern %q", ErrInvalidPattern, p)
	}

	var notes []score.Note
	if held {
		notes = append(notes, score.Note{Pitch: bass, Onset: 0, Duration: beats, Velocity: 55})
	}
	for i := 0; float64(i)*sixteenth < beats-1e-9; i++ {
		t := float64(i) * sixteenth
		vel := 70
		switch {
		case p == PatternAlberti:
			vel = 65
		case p == PatternAscending && i%4 != 0:
			vel = 60
		}
		notes = append(notes, score.Note{
			Pitch:    figure[i%len(figure)],
			Onset:    t,
			Duration: min(sixteenth, beats-t),
			Velocity: vel,
		})
	}
	return notes, nil
}
