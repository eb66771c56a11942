package score

import (
	"math"
	"sort"
)

// Voicing assigns one pitch per voice, highest voice first.
type Voicing []int

// Clone copies the voicing.
func (v Voicing) Clone() Voicing {
	return append(Voicing(nil), v...)
}

// Top returns the highest voice.
func (v Voicing) Top() int { return v[0] }

// Bass returns the lowest voice.
func (v Voicing) Bass() int { return v[len(v)-1] }

// Less orders voicings lexicographically, top voice first.
func (v Voicing) Less(o Voicing) bool {
	for i := range v {
		if i >= len(o) {
			return false
		}
		if v[i] != o[i] {
			return v[i] < o[i]
		}
	}
	return len(v) < len(o)
}

// Step is a vertical snapshot: one pitch (or Rest) per voice at a beat.
type Step struct {
	Beat    float64 `json:"beat"`
	Pitches []int   `json:"pitches"`
}

// Sounding reports whether voice v has a pitch at this step.
func (s Step) Sounding(v int) bool {
	return v < len(s.Pitches) && s.Pitches[v] != Rest
}

// Align samples each voice at the union of all onsets, holding any note
// still sounding and marking silence as Rest.
func Align(voices []Voice) []Step {
	var onsets []float64
	for _, v := range voices {
		for _, n := range v.Notes {
			onsets = append(onsets, n.Onset)
		}
	}
	sort.Float64s(onsets)

	var steps []Step
	for i, beat := range onsets {
		if i > 0 && math.Abs(beat-onsets[i-1]) < beatEpsilon {
			continue
		}
		step := Step{Beat: beat, Pitches: make([]int, len(voices))}
		for vi, v := range voices {
			step.Pitches[vi] = v.PitchAt(beat)
		}
		steps = append(steps, step)
	}
	return steps
}

// FromVoicings turns a voicing sequence into steps. When beats is shorter
// than voicings the step index is used as its beat.
func FromVoicings(voicings []Voicing, beats []float64) []Step {
	steps := make([]Step, len(voicings))
	for i, v := range voicings {
		beat := float64(i)
		if i < len(beats) {
			beat = beats[i]
		}
		steps[i] = Step{Beat: beat, Pitches: []int(v.Clone())}
	}
	return steps
}
