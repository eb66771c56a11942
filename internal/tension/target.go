package tension

import (
	"math"
	"sort"
)

// Target renders a section list into a prescribed curve. Each section holds
// its tension at its center; between two centers the later section's
// transition decides the shape: a cosine ease, a straight line, or a hold
// that jumps at the section boundary.
func Target(sections []Section, cfg Config) (*Curve, error) {
	if err := ValidateSections(sections); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	spans := spansOf(sections)
	p := profile{
		centers:     make([]float64, len(sections)),
		values:      make([]float64, len(sections)),
		starts:      make([]float64, len(sections)),
		transitions: make([]Transition, len(sections)),
	}
	for i, s := range sections {
		p.starts[i] = spans[i].Start
		p.centers[i] = spans[i].Start + s.Beats/2
		p.values[i] = s.Tension
		p.transitions[i], _ = ParseTransition(string(s.Transition))
	}

	total := TotalBeats(sections)
	n := int(math.Ceil(total/cfg.Resolution - 1e-9))
	samples := make([]Sample, n)
	for k := range samples {
		beat := float64(k) * cfg.Resolution
		samples[k] = Sample{Beat: beat, Combined: p.at(beat)}
	}

	return &Curve{
		samples:    samples,
		step:       cfg.Resolution,
		weights:    cfg.Weights,
		spans:      spans,
		prescribed: true,
		eval:       p.at,
		duration:   total,
	}, nil
}

type profile struct {
	centers     []float64
	values      []float64
	starts      []float64
	transitions []Transition
}

func (p profile) at(beat float64) float64 {
	last := len(p.centers) - 1
	if beat <= p.centers[0] {
		return p.values[0]
	}
	if beat >= p.centers[last] {
		return p.values[last]
	}
	// first center at or after beat
	j := sort.SearchFloat64s(p.centers, beat)
	if p.centers[j] == beat {
		return p.values[j]
	}
	i := j - 1
	from, to := p.values[i], p.values[j]
	u := (beat - p.centers[i]) / (p.centers[j] - p.centers[i])

	switch p.transitions[j] {
	case TransitionLinear:
		return from + (to-from)*u
	case TransitionAbrupt:
		if beat < p.starts[j] {
			return from
		}
		return to
	}
	return from + (to-from)*(1-math.Cos(math.Pi*u))/2
}

// Resection summarizes a curve back into sections with the same names,
// lengths and transitions, each carrying the curve's mean over its span.
func Resection(c *Curve, sections []Section) []Section {
	out := make([]Section, len(sections))
	start := 0.0
	for i, s := range sections {
		out[i] = s
		out[i].Tension = clamp01(c.Mean(start, start+s.Beats))
		start += s.Beats
	}
	return out
}

// Form presets allocate beats from tempo and length. Fractions of the total
// are floored and the remainder goes to the last section.

func formBeats(bpm, minutes float64, fractions ...float64) []float64 {
	total := math.Floor(bpm * minutes)
	out := make([]float64, len(fractions)+1)
	used := 0.0
	for i, f := range fractions {
		out[i] = math.Floor(total * f)
		used += out[i]
	}
	out[len(fractions)] = total - used
	return out
}

// LongFormBuild is a slow build to a single late peak, then a fade.
func LongFormBuild(bpm, minutes float64) []Section {
	b := formBeats(bpm, minutes, 0.20, 0.25, 0.20, 0.20)
	return []Section{
		{Name: "Intro", Beats: b[0], Tension: 0.12, Transition: TransitionEased},
		{Name: "Build", Beats: b[1], Tension: 0.35, Transition: TransitionEased},
		{Name: "Development", Beats: b[2], Tension: 0.55, Transition: TransitionEased},
		{Name: "Climax", Beats: b[3], Tension: 0.82, Transition: TransitionEased},
		{Name: "Fade", Beats: b[4], Tension: 0.08, Transition: TransitionEased},
	}
}

// ArchForm is A B A' with the contrasting middle as the peak.
func ArchForm(bpm, minutes float64) []Section {
	b := formBeats(bpm, minutes, 0.35, 0.35)
	return []Section{
		{Name: "A", Beats: b[0], Tension: 0.25, Transition: TransitionEased},
		{Name: "B", Beats: b[1], Tension: 0.65, Transition: TransitionEased},
		{Name: "A'", Beats: b[2], Tension: 0.20, Transition: TransitionEased},
	}
}

// RampForm rises almost monotonically and drops at the cadence.
func RampForm(bpm, minutes float64) []Section {
	b := formBeats(bpm, minutes, 0.30, 0.35, 0.25)
	return []Section{
		{Name: "Exposition", Beats: b[0], Tension: 0.20, Transition: TransitionEased},
		{Name: "Development", Beats: b[1], Tension: 0.40, Transition: TransitionEased},
		{Name: "Stretto", Beats: b[2], Tension: 0.75, Transition: TransitionEased},
		{Name: "Cadence", Beats: b[3], Tension: 0.10, Transition: TransitionAbrupt},
	}
}

// Form returns a preset by name at its default tempo and length.
func Form(name string) ([]Section, bool) {
	switch name {
	case "long_form_build":
		return LongFormBuild(76, 3.5), true
	case "arch":
		return ArchForm(72, 3.0), true
	case "ramp":
		return RampForm(92, 2.0), true
	}
	return nil, false
}

// FormAt returns a preset by name at the given tempo and length.
func FormAt(name string, bpm, minutes float64) ([]Section, bool) {
	switch name {
	case "long_form_build":
		return LongFormBuild(bpm, minutes), true
	case "arch":
		return ArchForm(bpm, minutes), true
	case "ramp":
		return RampForm(bpm, minutes), true
	}
	return nil, false
}

// FormNames lists the presets Form accepts.
func FormNames() []string {
	return []string{"arch", "long_form_build", "ramp"}
}
