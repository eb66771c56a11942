package score

import (
	"math"
	"sort"
)

// Rest marks a voice that is silent at a step.
const Rest = -1

// beatEpsilon absorbs float noise when comparing beat positions
const beatEpsilon = 1e-9

// Note is one timed pitch. Onset and Duration are in beats.
type Note struct {
	Pitch    int     `json:"pitch" yaml:"pitch"`
	Onset    float64 `json:"onset" yaml:"onset"`
	Duration float64 `json:"duration" yaml:"duration"`
	Velocity int     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
}

// End returns the beat at which the note stops sounding.
func (n Note) End() float64 {
	return n.Onset + n.Duration
}

// Sounding reports whether the note covers beat (half-open).
func (n Note) Sounding(beat float64) bool {
	return beat+beatEpsilon >= n.Onset && beat+beatEpsilon < n.End()
}

// Voice is a named part owning time-ordered notes.
type Voice struct {
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
	Notes []Note `json:"notes" yaml:"notes"`
}

// Sort orders notes by onset, then pitch.
func (v *Voice) Sort() {
	sort.SliceStable(v.Notes, func(i, j int) bool {
		if v.Notes[i].Onset != v.Notes[j].Onset {
			return v.Notes[i].Onset < v.Notes[j].Onset
		}
		return v.Notes[i].Pitch < v.Notes[j].Pitch
	})
}

// PitchAt returns the highest pitch sounding at beat, or Rest.
func (v Voice) PitchAt(beat float64) int {
	pitch := Rest
	for _, n := range v.Notes {
		if n.Sounding(beat) && n.Pitch > pitch {
			pitch = n.Pitch
		}
	}
	return pitch
}

// Pitches returns the pitch sequence in onset order.
func (v Voice) Pitches() []int {
	out := make([]int, len(v.Notes))
	for i, n := range v.Notes {
		out[i] = n.Pitch
	}
	return out
}

// Onsets returns distinct onsets in ascending order.
func (v Voice) Onsets() []float64 {
	out := make([]float64, 0, len(v.Notes))
	for _, n := range v.Notes {
		if len(out) > 0 && math.Abs(out[len(out)-1]-n.Onset) < beatEpsilon {
			continue
		}
		out = append(out, n.Onset)
	}
	return out
}

// End is the latest note end in the voice.
func (v Voice) End() float64 {
	end := 0.0
	for _, n := range v.Notes {
		end = math.Max(end, n.End())
	}
	return end
}

// Score is the full multi-voice passage.
type Score struct {
	Voices []Voice `json:"voices" yaml:"voices"`
}

// End is the latest note end across voices.
func (s Score) End() float64 {
	end := 0.0
	for _, v := range s.Voices {
		end = math.Max(end, v.End())
	}
	return end
}

// NoteCount totals notes over all voices.
func (s Score) NoteCount() int {
	total := 0
	for _, v := range s.Voices {
		total += len(v.Notes)
	}
	return total
}

// Voice looks up a voice by name.
func (s Score) Voice(name string) (Voice, bool) {
	for _, v := range s.Voices {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// Notes returns every note of every voice, ordered by onset.
func (s Score) Notes() []Note {
	all := make([]Note, 0, s.NoteCount())
	for _, v := range s.Voices {
		all = append(all, v.Notes...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Onset < all[j].Onset })
	return all
}

// Steps aligns the voices into vertical snapshots at every onset.
func (s Score) Steps() []Step {
	return Align(s.Voices)
}
