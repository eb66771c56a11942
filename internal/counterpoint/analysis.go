package counterpoint

import (
	"math"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Analysis is the normalized view every rule reads: aligned steps plus
// precomputed strong-beat flags.
type Analysis struct {
	Steps  []score.Step
	Voices int
	strong []bool
}

func newAnalysis(steps []score.Step, cfg Config) *Analysis {
	a := &Analysis{Steps: steps, strong: make([]bool, len(steps))}
	for _, s := range steps {
		a.Voices = max(a.Voices, len(s.Pitches))
	}
	for i, s := range steps {
		pos := math.Mod(s.Beat, cfg.BeatsPerBar)
		for _, b := range cfg.StrongBeats {
			if math.Abs(pos-b) < 1e-6 {
				a.strong[i] = true
				break
			}
		}
	}
	return a
}

// Pitch returns voice v at step i, or score.Rest.
func (a *Analysis) Pitch(i, v int) int {
	if i < 0 || i >= len(a.Steps) || !a.Steps[i].Sounding(v) {
		return score.Rest
	}
	return a.Steps[i].Pitches[v]
}

// Strong reports whether step i falls on a strong beat.
func (a *Analysis) Strong(i int) bool { return a.strong[i] }

// Melodic is voice v's move from step i-1 into step i.
func (a *Analysis) Melodic(i, v int) (int, bool) {
	from, to := a.Pitch(i-1, v), a.Pitch(i, v)
	if from == score.Rest || to == score.Rest {
		return 0, false
	}
	return to - from, true
}

// PairMotion classifies upper voice u against lower voice l between steps
// i-1 and i.
func (a *Analysis) PairMotion(i, u, l int) (theory.Motion, bool) {
	uf, ut, lf, lt := a.Pitch(i-1, u), a.Pitch(i, u), a.Pitch(i-1, l), a.Pitch(i, l)
	if uf == score.Rest || ut == score.Rest || lf == score.Rest || lt == score.Rest {
		return theory.MotionStatic, false
	}
	return theory.ClassifyMotion(uf, ut, lf, lt), true
}

// Lowest returns the index of the lowest sounding voice at step i, or -1.
func (a *Analysis) Lowest(i int) int {
	low := -1
	for v := 0; v < a.Voices; v++ {
		p := a.Pitch(i, v)
		if p == score.Rest {
			continue
		}
		if low == -1 || p < a.Pitch(i, low) {
			low = v
		}
	}
	return low
}

// pairs visits every voice pair, upper voice first.
func (a *Analysis) pairs(fn func(u, l int)) {
	for u := 0; u < a.Voices; u++ {
		for l := u + 1; l < a.Voices; l++ {
			fn(u, l)
		}
	}
}
