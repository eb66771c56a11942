package orchestrator

import (
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
)

// Range is a half-open beat interval [Start, End).
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r Range) Beats() float64 { return r.End - r.Start }

func (r Range) Contains(beat float64) bool { return beat >= r.Start && beat < r.End }

// Intersect returns the overlap of r and o, which may be empty.
func (r Range) Intersect(o Range) Range {
	out := Range{Start: max(r.Start, o.Start), End: min(r.End, o.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Activity lists the disjoint, ordered ranges in which a voice sounds.
type Activity struct {
	Voice  VoiceConfig `json:"voice"`
	Ranges []Range     `json:"ranges"`
}

// Plan is the voice activity derived from one tension curve.
type Plan struct {
	Activities []Activity `json:"activities"`
	curve      *tension.Curve
}

// PlanVoices walks the curve's grid once per voice. An inactive voice enters
// at the first sample at or above its enter threshold and stays until a
// sample at or below its exit threshold; always-on voices span the whole
// curve.
func PlanVoices(curve *tension.Curve, voices []VoiceConfig) (*Plan, error) {
	for _, v := range voices {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	end := curve.Duration()
	plan := &Plan{curve: curve}
	for _, v := range voices {
		act := Activity{Voice: v}
		if v.AlwaysOn {
			if end > 0 {
				act.Ranges = []Range{{Start: 0, End: end}}
			}
			plan.Activities = append(plan.Activities, act)
			continue
		}

		active := false
		start := 0.0
		for _, s := range curve.Samples() {
			switch {
			case !active && s.Combined >= v.Enter:
				active, start = true, s.Beat
			case active && s.Combined <= v.Exit:
				act.Ranges = append(act.Ranges, Range{Start: start, End: s.Beat})
				active = false
			}
		}
		if active {
			act.Ranges = append(act.Ranges, Range{Start: start, End: end})
		}
		plan.Activities = append(plan.Activities, act)
	}
	return plan, nil
}

// Ranges returns the active ranges of a voice by name.
func (p *Plan) Ranges(name string) []Range {
	for _, a := range p.Activities {
		if a.Voice.Name == name {
			return a.Ranges
		}
	}
	return nil
}

// Active reports whether the named voice sounds at beat.
func (p *Plan) Active(name string, beat float64) bool {
	for _, r := range p.Ranges(name) {
		if r.Contains(beat) {
			return true
		}
	}
	return false
}

// Entry is one activation of one voice.
type Entry struct {
	Voice   VoiceConfig `json:"voice"`
	Range   Range       `json:"range"`
	Tension float64     `json:"tension"`
}

// Entries flattens the plan, ordered by start beat and then by role. Tension
// is the curve's mean over the range.
func (p *Plan) Entries() []Entry {
	var out []Entry
	for _, a := range p.Activities {
		for _, r := range a.Ranges {
			e := Entry{Voice: a.Voice, Range: r}
			if p.curve != nil {
				e.Tension = p.curve.Mean(r.Start, r.End)
			}
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.Start != out[j].Range.Start {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].Voice.Role.order() < out[j].Voice.Role.order()
	})
	return out
}
