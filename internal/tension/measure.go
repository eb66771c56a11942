package tension

import (
	"math"
	"math/cmplx"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Measure computes the five sub-metrics per window of a finished score.
// Window k covers [k*Window, (k+1)*Window).
func Measure(s score.Score, cfg Config) (*Curve, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	end := s.End()
	n := int(math.Ceil(end/cfg.Window - 1e-9))
	samples := make([]Sample, n)
	for k := 0; k < n; k++ {
		start := float64(k) * cfg.Window
		c := measureWindow(s, start, cfg)
		samples[k] = Sample{Beat: start, Components: c, Combined: c.Combine(cfg.Weights)}
	}
	return &Curve{samples: samples, step: cfg.Window, weights: cfg.Weights}, nil
}

// MeasureSteps measures a voicing sequence where step i lasts one window.
func MeasureSteps(voicings []score.Voicing, names []string, cfg Config) (*Curve, error) {
	return Measure(ScoreFromVoicings(voicings, names, cfg.Window), cfg)
}

// ScoreFromVoicings lays voicings out as block chords of dur beats each.
func ScoreFromVoicings(voicings []score.Voicing, names []string, dur float64) score.Score {
	var s score.Score
	for i, v := range voicings {
		for vi, p := range v {
			for len(s.Voices) <= vi {
				name := ""
				if len(s.Voices) < len(names) {
					name = names[len(s.Voices)]
				}
				s.Voices = append(s.Voices, score.Voice{Name: name})
			}
			if p == score.Rest {
				continue
			}
			s.Voices[vi].Notes = append(s.Voices[vi].Notes, score.Note{Pitch: p, Onset: float64(i) * dur, Duration: dur})
		}
	}
	return s
}

func measureWindow(s score.Score, start float64, cfg Config) Components {
	end := start + cfg.Window
	var pitches []int
	onsets := 0
	for _, v := range s.Voices {
		for _, n := range v.Notes {
			if n.Onset < end && n.End() > start {
				pitches = append(pitches, n.Pitch)
			}
			if n.Onset >= start && n.Onset < end {
				onsets++
			}
		}
	}
	return Components{
		Harmonic:   harmonic(pitches, cfg),
		Dissonance: dissonance(pitches, cfg.Roughness),
		Melodic:    melodic(s, start, cfg),
		Registral:  registral(pitches, cfg.RegisterSpan),
		Density:    math.Min(float64(onsets)/(cfg.DensityCap*cfg.Window), 1),
	}
}

// harmonic reads one DFT bin of the pitch-class distribution. A strong
// coefficient in phase with the tonic is relaxed; a weak or out-of-phase
// one is tense.
func harmonic(pitches []int, cfg Config) float64 {
	if len(pitches) == 0 {
		return 0
	}
	k := float64(cfg.FourierCoefficient)
	var x complex128
	for _, p := range pitches {
		x += cmplx.Rect(1, -2*math.Pi*k*float64(theory.PitchClass(p))/12)
	}
	quality := cmplx.Abs(x) / float64(len(pitches))

	expected := -2 * math.Pi * k * float64(cfg.Tonic) / 12
	d := math.Mod(cmplx.Phase(x)-expected+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	phaseDist := math.Abs(d-math.Pi) / math.Pi

	return clamp01((1-quality)*cfg.MagnitudeWeight + phaseDist*(1-cfg.MagnitudeWeight))
}

func dissonance(pitches []int, roughness [7]float64) float64 {
	if len(pitches) < 2 {
		return 0
	}
	total, count := 0.0, 0
	for i := range pitches {
		for j := i + 1; j < len(pitches); j++ {
			total += roughness[theory.IntervalClass(pitches[i], pitches[j])]
			count++
		}
	}
	return total / float64(count)
}

// melodic averages each voice's move from the previous window into this one.
func melodic(s score.Score, start float64, cfg Config) float64 {
	prev := start - cfg.Window
	if prev < 0 {
		return 0
	}
	total, count := 0, 0
	for _, v := range s.Voices {
		a, b := v.PitchAt(prev), v.PitchAt(start)
		if a == score.Rest || b == score.Rest {
			continue
		}
		total += theory.Abs(b - a)
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Min(float64(total)/float64(count)/cfg.MelodicCap, 1)
}

func registral(pitches []int, span float64) float64 {
	if len(pitches) < 2 {
		return 0
	}
	lo, hi := pitches[0], pitches[0]
	for _, p := range pitches[1:] {
		lo, hi = min(lo, p), max(hi, p)
	}
	return math.Min(float64(hi-lo)/span, 1)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
