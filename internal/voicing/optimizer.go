package voicing

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Optimizer resolves chords into concrete voicings. It is safe for
// concurrent use; all state lives in the immutable Config.
type Optimizer struct {
	cfg Config
}

// New validates cfg and returns an optimizer bound to a copy of it.
func New(cfg Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg.clone()}, nil
}

// Config returns a copy of the optimizer configuration.
func (o *Optimizer) Config() Config { return o.cfg.clone() }

// Request asks for one chord change. Previous is nil for the first chord;
// Next is an optional lookahead used only for the common-tone bonus.
type Request struct {
	Chord    theory.Chord
	Previous score.Voicing
	Next     *theory.Chord
}

// Result carries the chosen voicing and search bookkeeping.
type Result struct {
	Voicing    score.Voicing `json:"voicing"`
	Score      float64       `json:"score"`
	Candidates int           `json:"candidates"`
	Legal      int           `json:"legal"`
}

// Voice runs both stages: candidate generation, then selection against the
// previous voicing.
func (o *Optimizer) Voice(req Request) (Result, error) {
	if req.Chord.IsZero() {
		return Result{}, fmt.Errorf("%w: empty chord", theory.ErrInvalidChord)
	}
	if req.Previous != nil && len(req.Previous) != o.cfg.Voices() {
		return Result{}, fmt.Errorf("%w: previous voicing has %d voices, want %d", ErrVoiceCount, len(req.Previous), o.cfg.Voices())
	}

	cands, err := o.Candidates(req.Chord)
	if err != nil {
		return Result{}, err
	}
	legal := o.Legal(cands, req.Previous)
	if len(legal) == 0 {
		return Result{}, infeasible(ConstraintParallel, req.Chord)
	}

	scores := o.scoreAll(legal, req)
	best := 0
	for i := 1; i < len(legal); i++ {
		switch {
		case scores[i] > scores[best]:
			best = i
		case scores[i] == scores[best] && legal[i].Less(legal[best]):
			best = i
		}
	}
	return Result{
		Voicing:    legal[best],
		Score:      scores[best],
		Candidates: len(cands),
		Legal:      len(legal),
	}, nil
}

// Candidates enumerates every voicing of chord that satisfies range,
// ordering, spacing and doubling, in lexicographic order. It does not look
// at any previous voicing.
func (o *Optimizer) Candidates(chord theory.Chord) ([]score.Voicing, error) {
	options := o.options(chord)
	for _, opts := range options {
		if len(opts) == 0 {
			return nil, infeasible(ConstraintRange, chord)
		}
	}

	spaced := o.enumerate(options, true)
	if len(spaced) == 0 {
		if len(o.enumerate(options, false)) == 0 {
			return nil, infeasible(ConstraintRange, chord)
		}
		return nil, infeasible(ConstraintSpacing, chord)
	}

	required := requiredTones(chord, o.cfg.Voices())
	out := spaced[:0]
	for _, v := range spaced {
		if covers(v, required) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, infeasible(ConstraintDoubling, chord)
	}
	return out, nil
}

// Legal drops candidates that move into parallel perfect intervals on any
// voice pair, or into a direct perfect interval on the outer pair.
func (o *Optimizer) Legal(cands []score.Voicing, prev score.Voicing) []score.Voicing {
	if prev == nil {
		return cands
	}
	out := make([]score.Voicing, 0, len(cands))
	for _, c := range cands {
		if o.motionLegal(prev, c) {
			out = append(out, c)
		}
	}
	return out
}

func (o *Optimizer) motionLegal(prev, next score.Voicing) bool {
	n := len(next)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if prev[i] == score.Rest || prev[j] == score.Rest {
				continue
			}
			if theory.IsParallelPerfect(prev[i], next[i], prev[j], next[j]) {
				return false
			}
		}
	}
	top, bass := 0, n-1
	if prev[top] == score.Rest || prev[bass] == score.Rest {
		return true
	}
	return !theory.IsDirectPerfect(prev[top], next[top], prev[bass], next[bass], o.cfg.LeapThreshold)
}

// options lists the in-range chord-tone pitches per voice, ascending. The
// lowest voice only takes the bass pitch class.
func (o *Optimizer) options(chord theory.Chord) [][]int {
	n := o.cfg.Voices()
	options := make([][]int, n)
	for i, r := range o.cfg.Ranges {
		for p := r.Low; p <= r.High; p++ {
			if i == n-1 {
				if theory.PitchClass(p) == chord.Bass {
					options[i] = append(options[i], p)
				}
				continue
			}
			if chord.Contains(p) {
				options[i] = append(options[i], p)
			}
		}
	}
	return options
}

// enumerate walks the option lists depth first, top voice outermost, so the
// output is already in lexicographic order.
func (o *Optimizer) enumerate(options [][]int, spacing bool) []score.Voicing {
	n := len(options)
	var out []score.Voicing
	cur := make(score.Voicing, n)

	var walk func(i int)
	walk = func(i int) {
		if i == n {
			out = append(out, cur.Clone())
			return
		}
		for _, p := range options[i] {
			if i > 0 {
				if p >= cur[i-1] {
					break
				}
				if spacing && cur[i-1]-p > o.spacingLimit(i) {
					continue
				}
			}
			cur[i] = p
			walk(i + 1)
		}
	}
	walk(0)
	return out
}

// spacingLimit is the largest gap allowed between voice i-1 and voice i.
func (o *Optimizer) spacingLimit(i int) int {
	if i == o.cfg.Voices()-1 {
		return o.cfg.BassSpacing
	}
	return o.cfg.MaxSpacing
}

// requiredTones picks which pitch classes must sound when voices may not
// cover every tone: root, third, then the upper extensions down to the fifth.
func requiredTones(chord theory.Chord, voices int) []int {
	tones := chord.Tones
	priority := make([]int, 0, len(tones))
	priority = append(priority, tones[0])
	if len(tones) > 1 {
		priority = append(priority, tones[1])
	}
	for i := len(tones) - 1; i >= 2; i-- {
		priority = append(priority, tones[i])
	}
	if voices < len(priority) {
		priority = priority[:voices]
	}
	// the bass is always sounded by the lowest voice
	if !containsPC(priority, chord.Bass) {
		priority[len(priority)-1] = chord.Bass
	}
	return priority
}

func covers(v score.Voicing, required []int) bool {
	for _, pc := range required {
		found := false
		for _, p := range v {
			if theory.PitchClass(p) == pc {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsPC(pcs []int, pc int) bool {
	for _, x := range pcs {
		if x == pc {
			return true
		}
	}
	return false
}

func (o *Optimizer) scoreAll(cands []score.Voicing, req Request) []float64 {
	scores := make([]float64, len(cands))
	if len(cands) < o.cfg.ParallelThreshold || o.cfg.Workers == 1 {
		for i, c := range cands {
			scores[i] = o.score(c, req)
		}
		return scores
	}

	chunk := (len(cands) + o.cfg.Workers - 1) / o.cfg.Workers
	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for start := 0; start < len(cands); start += chunk {
		start, end := start, min(start+chunk, len(cands))
		g.Go(func() error {
			for i := start; i < end; i++ {
				scores[i] = o.score(cands[i], req)
			}
			return nil
		})
	}
	_ = g.Wait()
	return scores
}

// score is higher for better candidates.
func (o *Optimizer) score(c score.Voicing, req Request) float64 {
	w := o.cfg.Weights
	s := 0.0

	if req.Previous == nil {
		for i, p := range c {
			s -= w.Centering * math.Abs(float64(p)-o.cfg.Ranges[i].Center())
		}
	} else {
		prev := req.Previous
		for i, p := range c {
			if prev[i] == score.Rest {
				continue
			}
			d := p - prev[i]
			s -= w.Displacement * float64(theory.Abs(d))
			if resolvesTendency(prev[i], p, req.Chord) {
				s += w.Tendency
			}
			if theory.IsAwkwardLeap(d) {
				s -= w.MelodicPenalty
			}
		}
		top, bass := 0, len(c)-1
		if prev[top] != score.Rest && prev[bass] != score.Rest {
			dt, db := c[top]-prev[top], c[bass]-prev[bass]
			if dt != 0 && db != 0 && theory.Sign(dt) != theory.Sign(db) {
				s += w.ContraryOuter
			}
		}
	}

	s -= w.DoublingPenalty * float64(doubledNonRoot(c, req.Chord.Root))

	if req.Next != nil {
		for _, p := range c[:len(c)-1] {
			if req.Next.Contains(p) {
				s += w.CommonTone
			}
		}
	}
	return s
}

// resolvesTendency reports a non-chord tone moving by semitone in its
// expected direction: up into the root (leading tone) or down into the
// third (chordal seventh).
func resolvesTendency(from, to int, chord theory.Chord) bool {
	if chord.Contains(from) {
		return false
	}
	switch to - from {
	case theory.MinorSecond:
		return theory.PitchClass(to) == chord.Root
	case -theory.MinorSecond:
		third := theory.PitchClass(to - chord.Root)
		return chord.Contains(to) && (third == theory.MinorThird || third == theory.MajorThird)
	}
	return false
}

func doubledNonRoot(v score.Voicing, root int) int {
	var counts [theory.SemitonesPerOctave]int
	for _, p := range v {
		counts[theory.PitchClass(p)]++
	}
	extra := 0
	for pc, n := range counts {
		if pc != root && n > 1 {
			extra += n - 1
		}
	}
	return extra
}
