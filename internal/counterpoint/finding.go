package counterpoint

import "sort"

// Severity separates hard errors from informational warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind is the closed taxonomy of findings.
type Kind string

const (
	KindParallelPerfect      Kind = "parallel-perfect"
	KindDirectPerfect        Kind = "direct-perfect"
	KindVoiceCrossing        Kind = "voice-crossing"
	KindUnresolvedDissonance Kind = "unresolved-dissonance"
	KindUnfilledLeap         Kind = "unfilled-leap"
	KindSpacingDrift         Kind = "spacing-drift"
	KindStaticVoicing        Kind = "static-voicing"
	KindAwkwardLeap          Kind = "awkward-leap"
)

// Severity is fixed per kind.
func (k Kind) Severity() Severity {
	switch k {
	case KindParallelPerfect, KindDirectPerfect, KindVoiceCrossing, KindUnresolvedDissonance:
		return SeverityError
	}
	return SeverityWarning
}

// Finding is one diagnostic. Step indexes the aligned step sequence;
// Voices lists the voice indices involved, highest first.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Beat     float64  `json:"beat"`
	Step     int      `json:"step"`
	Voices   []int    `json:"voices"`
	Detail   string   `json:"detail,omitempty"`
}

func newFinding(kind Kind, a *Analysis, step int, detail string, voices ...int) Finding {
	return Finding{
		Kind:     kind,
		Severity: kind.Severity(),
		Beat:     a.Steps[step].Beat,
		Step:     step,
		Voices:   voices,
		Detail:   detail,
	}
}

// Report collects findings in beat order.
type Report struct {
	Steps    int       `json:"steps"`
	Findings []Finding `json:"findings"`
}

func (r *Report) sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		return r.Findings[i].Beat < r.Findings[j].Beat
	})
}

func (r Report) filter(sev Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func (r Report) Errors() []Finding { return r.filter(SeverityError) }

func (r Report) Warnings() []Finding { return r.filter(SeverityWarning) }

func (r Report) HasErrors() bool { return len(r.Errors()) > 0 }

// Count returns how many findings have the given kind.
func (r Report) Count(kind Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// ByKind tallies findings per kind.
func (r Report) ByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}
