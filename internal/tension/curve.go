package tension

import (
	"fmt"
	"math"
	"strings"
)

// Sample is the curve at one grid beat.
type Sample struct {
	Beat       float64    `json:"beat"`
	Components Components `json:"components"`
	Combined   float64    `json:"combined"`
}

// Span locates a named section on the beat axis.
type Span struct {
	Name    string  `json:"name"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Tension float64 `json:"tension"`
}

// Curve maps beats to tension. Measured curves hold each window's value;
// prescribed curves evaluate their section profile exactly. A Curve is never
// mutated after construction.
type Curve struct {
	samples    []Sample
	step       float64
	weights    Weights
	spans      []Span
	prescribed bool
	eval       func(beat float64) float64
	duration   float64
}

// FromValues wraps combined values sampled every step beats.
func FromValues(values []float64, step float64) *Curve {
	samples := make([]Sample, len(values))
	for i, v := range values {
		samples[i] = Sample{Beat: float64(i) * step, Combined: v}
	}
	return &Curve{samples: samples, step: step, weights: DefaultWeights()}
}

// Prescribed reports a target curve whose sub-metrics are not specified.
func (c *Curve) Prescribed() bool { return c.prescribed }

func (c *Curve) Len() int { return len(c.samples) }

func (c *Curve) Step() float64 { return c.step }

func (c *Curve) Weights() Weights { return c.weights }

// Duration is the curve length in beats.
func (c *Curve) Duration() float64 {
	if c.duration > 0 {
		return c.duration
	}
	return float64(len(c.samples)) * c.step
}

// DurationSeconds converts Duration at the given tempo.
func (c *Curve) DurationSeconds(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return c.Duration() * 60 / bpm
}

// Samples returns a copy of the sample grid.
func (c *Curve) Samples() []Sample {
	return append([]Sample(nil), c.samples...)
}

// Values returns the combined value of every sample.
func (c *Curve) Values() []float64 {
	out := make([]float64, len(c.samples))
	for i, s := range c.samples {
		out[i] = s.Combined
	}
	return out
}

func (c *Curve) index(beat float64) int {
	if len(c.samples) == 0 {
		return -1
	}
	i := int(math.Floor(beat/c.step + 1e-9))
	return max(0, min(i, len(c.samples)-1))
}

// At returns the combined tension at beat. Beats outside the curve take the
// nearest end value.
func (c *Curve) At(beat float64) float64 {
	if c.eval != nil {
		return c.eval(beat)
	}
	i := c.index(beat)
	if i < 0 {
		return 0
	}
	return c.samples[i].Combined
}

// Components returns the sub-metrics at beat. Prescribed curves return zero.
func (c *Curve) Components(beat float64) Components {
	i := c.index(beat)
	if i < 0 || c.prescribed {
		return Components{}
	}
	return c.samples[i].Components
}

// WithSections returns a copy annotated with section spans.
func (c *Curve) WithSections(sections []Section) *Curve {
	out := *c
	out.spans = spansOf(sections)
	return &out
}

func spansOf(sections []Section) []Span {
	spans := make([]Span, len(sections))
	start := 0.0
	for i, s := range sections {
		spans[i] = Span{Name: s.Name, Start: start, End: start + s.Beats, Tension: s.Tension}
		start += s.Beats
	}
	return spans
}

func (c *Curve) Sections() []Span {
	return append([]Span(nil), c.spans...)
}

// SectionAt names the section covering beat.
func (c *Curve) SectionAt(beat float64) (string, bool) {
	if len(c.spans) == 0 {
		return "", false
	}
	name := c.spans[0].Name
	for _, s := range c.spans {
		if beat >= s.Start {
			name = s.Name
		} else {
			break
		}
	}
	return name, true
}

// SectionRange returns the half-open beat range of the named section.
func (c *Curve) SectionRange(name string) (start, end float64, ok bool) {
	for _, s := range c.spans {
		if s.Name == name {
			return s.Start, s.End, true
		}
	}
	return 0, 0, false
}

// Mean averages grid samples with start <= beat < end.
func (c *Curve) Mean(start, end float64) float64 {
	total, n := 0.0, 0
	for _, s := range c.samples {
		if s.Beat >= start && s.Beat < end {
			total += c.At(s.Beat)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Peak returns the first sample with the highest combined value.
func (c *Curve) Peak() Sample {
	var best Sample
	for i, s := range c.samples {
		if i == 0 || s.Combined > best.Combined {
			best = s
		}
	}
	return best
}

// SectionStats summarizes the curve over one section.
type SectionStats struct {
	Span
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary describes the whole curve and each section.
type Summary struct {
	Beats      float64        `json:"beats"`
	Min        float64        `json:"min"`
	Max        float64        `json:"max"`
	Mean       float64        `json:"mean"`
	Prescribed bool           `json:"prescribed"`
	Sections   []SectionStats `json:"sections,omitempty"`
}

func (c *Curve) Summary() Summary {
	sum := Summary{Beats: c.Duration(), Prescribed: c.prescribed}
	sum.Min, sum.Max, sum.Mean = c.stats(0, math.Inf(1))
	for _, sp := range c.spans {
		st := SectionStats{Span: sp}
		st.Min, st.Max, st.Mean = c.stats(sp.Start, sp.End)
		sum.Sections = append(sum.Sections, st)
	}
	return sum
}

func (c *Curve) stats(start, end float64) (lo, hi, mean float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	n := 0
	for _, s := range c.samples {
		if s.Beat < start || s.Beat >= end {
			continue
		}
		lo, hi = math.Min(lo, s.Combined), math.Max(hi, s.Combined)
		mean += s.Combined
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return lo, hi, mean / float64(n)
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tension curve: %.0f beats, range [%.2f, %.2f], mean %.3f", s.Beats, s.Min, s.Max, s.Mean)
	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "\n  %-16s beats %4.0f-%4.0f  tension [%.2f, %.2f]  mean %.3f",
			sec.Name, sec.Start, sec.End, sec.Min, sec.Max, sec.Mean)
	}
	return b.String()
}

// Distance is the RMS difference of combined tension over the beats both
// curves cover, sampled on the finer of the two grids.
func Distance(a, b *Curve) float64 {
	step := math.Min(a.Step(), b.Step())
	span := math.Min(a.Duration(), b.Duration())
	if step <= 0 || span <= 0 {
		return 0
	}
	total, n := 0.0, 0
	for beat := 0.0; beat < span-1e-9; beat += step {
		d := a.At(beat) - b.At(beat)
		total += d * d
		n++
	}
	return math.Sqrt(total / float64(n))
}
