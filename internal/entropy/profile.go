package entropy

import (
	"fmt"
	"math"
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Assessment buckets transition entropy against the sweet spot.
type Assessment string

const (
	TooPredictable Assessment = "too-predictable"
	Balanced       Assessment = "balanced"
	TooRandom      Assessment = "too-random"
)

// VoiceProfile holds one voice's measurements, in bits.
type VoiceProfile struct {
	Name       string  `json:"name"`
	Notes      int     `json:"notes"`
	Pitch      float64 `json:"pitch"`
	Transition float64 `json:"transition"`
	Rhythm     float64 `json:"rhythm"`
	Interval   float64 `json:"interval"`
}

// PairInformation is the mutual information between two voices sampled at
// shared onsets.
type PairInformation struct {
	Upper   string  `json:"upper"`
	Lower   string  `json:"lower"`
	Samples int     `json:"samples"`
	Bits    float64 `json:"bits"`
}

// Window is pitch and rhythm entropy of the onsets in one sliding window.
type Window struct {
	Beat   float64 `json:"beat"`
	Pitch  float64 `json:"pitch"`
	Rhythm float64 `json:"rhythm"`
}

// Profile is the full information-theoretic summary of a passage.
type Profile struct {
	Voices            []VoiceProfile    `json:"voices"`
	PitchBigram       float64           `json:"pitch_bigram"`
	Rhythm            float64           `json:"rhythm"`
	MutualInformation float64           `json:"mutual_information"`
	Pairs             []PairInformation `json:"pairs,omitempty"`
	Windows           []Window          `json:"windows,omitempty"`
	Transition        float64           `json:"transition"`
	Predictability    float64           `json:"predictability"`
	Assessment        Assessment        `json:"assessment"`
}

// Analyze measures every voice of s, the pooled distributions, cross-voice
// mutual information and the windowed profile.
func Analyze(s score.Score, cfg Config) (Profile, error) {
	if err := cfg.Validate(); err != nil {
		return Profile{}, err
	}

	voices := make([]score.Voice, len(s.Voices))
	for i, v := range s.Voices {
		v.Notes = append([]score.Note(nil), v.Notes...)
		v.Sort()
		voices[i] = v
	}

	var p Profile
	var bigrams [][2]int
	var iois []float64
	transitions := 0.0
	measured := 0
	for i, v := range voices {
		vp := VoiceProfile{Name: voiceName(v, i), Notes: len(v.Notes)}
		if len(v.Notes) >= 2 {
			pcs := pitchClasses(v.Notes)
			vi := interOnsets(v.Notes, cfg.RhythmPrecision)
			vp.Pitch = Shannon(pcs)
			vp.Transition = ConditionalEntropy(pcs)
			vp.Rhythm = Shannon(vi)
			vp.Interval = Shannon(intervalClasses(pcs))

			for j := 1; j < len(pcs); j++ {
				bigrams = append(bigrams, [2]int{pcs[j-1], pcs[j]})
			}
			iois = append(iois, vi...)
			transitions += vp.Transition
			measured++
		}
		p.Voices = append(p.Voices, vp)
	}

	p.PitchBigram = Shannon(bigrams)
	p.Rhythm = Shannon(iois)
	p.Pairs, p.MutualInformation = crossVoice(voices, cfg)
	p.Windows = windows(voices, s.End(), cfg)

	if measured > 0 {
		p.Transition = transitions / float64(measured)
	}
	p.Predictability = 1 - p.Transition/MaxPitchEntropy
	p.Assessment = Assess(p.Transition, cfg)
	return p, nil
}

// Assess places a transition entropy relative to the sweet spot.
func Assess(bits float64, cfg Config) Assessment {
	switch {
	case bits < cfg.SweetSpotLow:
		return TooPredictable
	case bits > cfg.SweetSpotHigh:
		return TooRandom
	}
	return Balanced
}

func voiceName(v score.Voice, i int) string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("voice_%d", i)
}

func pitchClasses(notes []score.Note) []int {
	out := make([]int, len(notes))
	for i, n := range notes {
		out[i] = theory.PitchClass(n.Pitch)
	}
	return out
}

func intervalClasses(pcs []int) []int {
	out := make([]int, 0, len(pcs))
	for i := 1; i < len(pcs); i++ {
		out = append(out, theory.IntervalClass(pcs[i-1], pcs[i]))
	}
	return out
}

func round(x float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}

// interOnsets lists the positive gaps between consecutive onsets.
func interOnsets(notes []score.Note, digits int) []float64 {
	var out []float64
	for i := 1; i < len(notes); i++ {
		if d := round(notes[i].Onset-notes[i-1].Onset, digits); d > 0 {
			out = append(out, d)
		}
	}
	return out
}

func crossVoice(voices []score.Voice, cfg Config) ([]PairInformation, float64) {
	if len(voices) < 2 {
		return nil, 0
	}
	onsetSet := make(map[float64]struct{})
	for _, v := range voices {
		for _, n := range v.Notes {
			onsetSet[n.Onset] = struct{}{}
		}
	}
	if len(onsetSet) < cfg.MinJointSamples {
		return nil, 0
	}
	onsets := make([]float64, 0, len(onsetSet))
	for o := range onsetSet {
		onsets = append(onsets, o)
	}
	sort.Float64s(onsets)

	var pairs []PairInformation
	total := 0.0
	for i := 0; i < len(voices); i++ {
		for j := i + 1; j < len(voices); j++ {
			var xs, ys []int
			for _, t := range onsets {
				a, b := voices[i].PitchAt(t), voices[j].PitchAt(t)
				if a == score.Rest || b == score.Rest {
					continue
				}
				xs = append(xs, theory.PitchClass(a))
				ys = append(ys, theory.PitchClass(b))
			}
			if len(xs) < cfg.MinJointSamples {
				continue
			}
			mi := MutualInformation(xs, ys)
			pairs = append(pairs, PairInformation{
				Upper: voiceName(voices[i], i), Lower: voiceName(voices[j], j),
				Samples: len(xs), Bits: mi,
			})
			total += mi
		}
	}
	if len(pairs) == 0 {
		return nil, 0
	}
	return pairs, total / float64(len(pairs))
}

func windows(voices []score.Voice, end float64, cfg Config) []Window {
	var all []score.Note
	for _, v := range voices {
		all = append(all, v.Notes...)
	}
	var out []Window
	for t := 0.0; t < end-1e-9; t += cfg.Resolution {
		w := Window{Beat: t}
		var pcs []int
		var onsets []float64
		for _, n := range all {
			if n.Onset >= t && n.Onset < t+cfg.Window {
				pcs = append(pcs, theory.PitchClass(n.Pitch))
				onsets = append(onsets, n.Onset)
			}
		}
		if len(pcs) >= cfg.MinWindowNotes {
			sort.Float64s(onsets)
			var gaps []float64
			for i := 1; i < len(onsets); i++ {
				if d := round(onsets[i]-onsets[i-1], cfg.RhythmPrecision); d > 0 {
					gaps = append(gaps, d)
				}
			}
			w.Pitch = Shannon(pcs)
			w.Rhythm = Shannon(gaps)
		}
		out = append(out, w)
	}
	return out
}

// Target declares desired entropy values. Nil fields are not compared.
type Target struct {
	Transition        *float64 `json:"transition,omitempty" yaml:"transition,omitempty"`
	Rhythm            *float64 `json:"rhythm,omitempty" yaml:"rhythm,omitempty"`
	MutualInformation *float64 `json:"mutual_information,omitempty" yaml:"mutual_information,omitempty"`
}

// SweetSpotTarget aims transition entropy at the middle of the sweet spot.
func SweetSpotTarget(cfg Config) Target {
	mid := (cfg.SweetSpotLow + cfg.SweetSpotHigh) / 2
	return Target{Transition: &mid}
}

// Distance is the RMS gap, in bits, between p and the declared fields of t.
func Distance(p Profile, t Target) float64 {
	total, n := 0.0, 0
	add := func(want *float64, got float64) {
		if want == nil {
			return
		}
		d := got - *want
		total += d * d
		n++
	}
	add(t.Transition, p.Transition)
	add(t.Rhythm, p.Rhythm)
	add(t.MutualInformation, p.MutualInformation)
	if n == 0 {
		return 0
	}
	return math.Sqrt(total / float64(n))
}
