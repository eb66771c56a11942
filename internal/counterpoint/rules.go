package counterpoint

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Rule is one independent check. Rules never see each other's output.
type Rule struct {
	Name  string
	Check func(a *Analysis, cfg Config) []Finding
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "parallel-perfect", Check: checkParallelPerfect},
		{Name: "direct-perfect", Check: checkDirectPerfect},
		{Name: "voice-crossing", Check: checkVoiceCrossing},
		{Name: "strong-beat-dissonance", Check: checkDissonance},
		{Name: "unfilled-leap", Check: checkUnfilledLeap},
		{Name: "awkward-leap", Check: checkAwkwardLeap},
		{Name: "spacing-drift", Check: checkSpacing},
		{Name: "static-voicing", Check: checkStatic},
	}
}

func perfectName(semitones int) string {
	if theory.SimpleInterval(semitones, 0) == theory.Fifth {
		return "fifths"
	}
	return "octaves"
}

func checkParallelPerfect(a *Analysis, _ Config) []Finding {
	var out []Finding
	for i := 1; i < len(a.Steps); i++ {
		a.pairs(func(u, l int) {
			if m, ok := a.PairMotion(i, u, l); !ok || m == theory.MotionStatic {
				return
			}
			uf, ut, lf, lt := a.Pitch(i-1, u), a.Pitch(i, u), a.Pitch(i-1, l), a.Pitch(i, l)
			if theory.IsParallelPerfect(uf, ut, lf, lt) {
				out = append(out, newFinding(KindParallelPerfect, a, i,
					"parallel "+perfectName(ut-lt), u, l))
			}
		})
	}
	return out
}

func checkDirectPerfect(a *Analysis, cfg Config) []Finding {
	var out []Finding
	check := func(i, u, l int) {
		uf, ut, lf, lt := a.Pitch(i-1, u), a.Pitch(i, u), a.Pitch(i-1, l), a.Pitch(i, l)
		if uf == score.Rest || ut == score.Rest || lf == score.Rest || lt == score.Rest {
			return
		}
		if theory.IsDirectPerfect(uf, ut, lf, lt, cfg.StepLimit) {
			out = append(out, newFinding(KindDirectPerfect, a, i,
				fmt.Sprintf("direct %s with upper leap of %d", perfectName(ut-lt), theory.Abs(ut-uf)), u, l))
		}
	}
	for i := 1; i < len(a.Steps); i++ {
		if cfg.OuterDirectOnly {
			if a.Voices > 1 {
				check(i, 0, a.Voices-1)
			}
			continue
		}
		a.pairs(func(u, l int) { check(i, u, l) })
	}
	return out
}

func crossed(a *Analysis, i, u, l int) bool {
	pu, pl := a.Pitch(i, u), a.Pitch(i, l)
	return pu != score.Rest && pl != score.Rest && pu < pl
}

// checkVoiceCrossing reports each crossing once, where it begins.
func checkVoiceCrossing(a *Analysis, _ Config) []Finding {
	var out []Finding
	for i := range a.Steps {
		a.pairs(func(u, l int) {
			if crossed(a, i, u, l) && (i == 0 || !crossed(a, i-1, u, l)) {
				out = append(out, newFinding(KindVoiceCrossing, a, i,
					fmt.Sprintf("%s below %s", theory.PitchName(a.Pitch(i, u)), theory.PitchName(a.Pitch(i, l))), u, l))
			}
		})
	}
	return out
}

// dissonant treats seconds, sevenths and the tritone as dissonant, and the
// fourth only when it sits against the lowest sounding voice.
func dissonant(a *Analysis, i, u, l int) bool {
	switch theory.SimpleInterval(a.Pitch(i, u), a.Pitch(i, l)) {
	case 1, 2, 6, 10, 11:
		return true
	case 5:
		low := a.Lowest(i)
		return low == u || low == l
	}
	return false
}

func isStep(d, limit int) bool {
	d = theory.Abs(d)
	return d >= 1 && d <= limit
}

// suspended reports a voice held from the previous step that resolves by step.
func suspended(a *Analysis, i, v int, cfg Config) bool {
	in, okIn := a.Melodic(i, v)
	out, okOut := a.Melodic(i+1, v)
	return okIn && okOut && in == 0 && isStep(out, cfg.StepLimit)
}

// passing reports a voice that arrives and leaves by step in one direction.
func passing(a *Analysis, i, v int, cfg Config) bool {
	in, okIn := a.Melodic(i, v)
	out, okOut := a.Melodic(i+1, v)
	return okIn && okOut && isStep(in, cfg.StepLimit) && isStep(out, cfg.StepLimit) &&
		theory.Sign(in) == theory.Sign(out)
}

func checkDissonance(a *Analysis, cfg Config) []Finding {
	var out []Finding
	for i := range a.Steps {
		if !a.Strong(i) {
			continue
		}
		a.pairs(func(u, l int) {
			if a.Pitch(i, u) == score.Rest || a.Pitch(i, l) == score.Rest || !dissonant(a, i, u, l) {
				return
			}
			for _, v := range []int{u, l} {
				if suspended(a, i, v, cfg) || passing(a, i, v, cfg) {
					return
				}
			}
			out = append(out, newFinding(KindUnresolvedDissonance, a, i,
				fmt.Sprintf("%s against %s on a strong beat", theory.PitchName(a.Pitch(i, u)), theory.PitchName(a.Pitch(i, l))), u, l))
		})
	}
	return out
}

// checkUnfilledLeap wants a leap answered by a step the other way. A leap
// into the final step of a line is left alone.
func checkUnfilledLeap(a *Analysis, cfg Config) []Finding {
	var out []Finding
	for v := 0; v < a.Voices; v++ {
		for i := 1; i < len(a.Steps)-1; i++ {
			leap, ok := a.Melodic(i, v)
			if !ok || theory.Abs(leap) <= cfg.LeapThreshold {
				continue
			}
			next, ok := a.Melodic(i+1, v)
			if !ok {
				continue
			}
			if isStep(next, cfg.StepLimit) && theory.Sign(next) != theory.Sign(leap) {
				continue
			}
			out = append(out, newFinding(KindUnfilledLeap, a, i,
				fmt.Sprintf("leap of %d not recovered by contrary step", leap), v))
		}
	}
	return out
}

func checkAwkwardLeap(a *Analysis, _ Config) []Finding {
	var out []Finding
	for v := 0; v < a.Voices; v++ {
		for i := 1; i < len(a.Steps); i++ {
			if m, ok := a.Melodic(i, v); ok && theory.IsAwkwardLeap(m) {
				out = append(out, newFinding(KindAwkwardLeap, a, i,
					fmt.Sprintf("melodic interval of %d semitones", m), v))
			}
		}
	}
	return out
}

// spacingGap returns the gap between voice u and the next sounding voice
// below it, and whether that lower voice is the bass.
func spacingGap(a *Analysis, i, u int) (gap, lower int) {
	pu := a.Pitch(i, u)
	if pu == score.Rest {
		return 0, -1
	}
	for l := u + 1; l < a.Voices; l++ {
		if pl := a.Pitch(i, l); pl != score.Rest {
			return pu - pl, l
		}
	}
	return 0, -1
}

func (c Config) spacingLimitFor(lower, voices int) int {
	if lower == voices-1 {
		return c.BassSpacingLimit
	}
	return c.SpacingLimit
}

func checkSpacing(a *Analysis, cfg Config) []Finding {
	var out []Finding
	drifting := make(map[[2]int]bool)
	for i := range a.Steps {
		now := make(map[[2]int]bool)
		for u := 0; u < a.Voices-1; u++ {
			gap, l := spacingGap(a, i, u)
			if l < 0 || gap <= cfg.spacingLimitFor(l, a.Voices) {
				continue
			}
			key := [2]int{u, l}
			now[key] = true
			if !drifting[key] {
				out = append(out, newFinding(KindSpacingDrift, a, i,
					fmt.Sprintf("gap of %d semitones", gap), u, l))
			}
		}
		drifting = now
	}
	return out
}

// checkStatic flags a pair that keeps the same vertical interval while
// moving for more than StaticRunLimit consecutive steps.
func checkStatic(a *Analysis, cfg Config) []Finding {
	var out []Finding
	a.pairs(func(u, l int) {
		run := 1
		for i := 1; i < len(a.Steps); i++ {
			m, ok := a.PairMotion(i, u, l)
			if !ok || m != theory.MotionParallel {
				run = 1
				continue
			}
			run++
			if run == cfg.StaticRunLimit+1 {
				out = append(out, newFinding(KindStaticVoicing, a, i,
					fmt.Sprintf("interval of %d held for %d steps", a.Pitch(i, u)-a.Pitch(i, l), run), u, l))
			}
		}
	})
	return out
}
