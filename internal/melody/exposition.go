package melody

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// continuationBeats is the note length of free counterpoint under an entry
const continuationBeats = 2.0

// FugueVoice is one exposition part and its MIDI range.
type FugueVoice struct {
	Name string `json:"name"`
	Low  int    `json:"low"`
	High int    `json:"high"`
}

var choir = []FugueVoice{
	{Name: "soprano", Low: 60, High: 84},
	{Name: "alto", Low: 53, High: 77},
	{Name: "tenor", Low: 48, High: 72},
	{Name: "bass", Low: 40, High: 64},
}

// FugueVoices returns the parts for an n-voice exposition, highest first.
// Three and four voices use choir ranges.
func FugueVoices(n int) []FugueVoice {
	if n == 3 || n == 4 {
		return append([]FugueVoice(nil), choir[:n]...)
	}
	out := make([]FugueVoice, n)
	for i := range out {
		out[i] = FugueVoice{Name: fmt.Sprintf("voice_%d", i+1), Low: 48, High: 84}
	}
	return out
}

// defaultEntryOrder starts in a middle voice, then the one above, then
// downwards.
func defaultEntryOrder(n int) []int {
	switch n {
	case 4:
		return []int{1, 0, 2, 3}
	case 3:
		return []int{1, 0, 2}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// ExpositionOptions configures BuildExposition. Zero values pick four
// voices, the default entry order, a tonal answer and the major scale on the
// subject's key.
type ExpositionOptions struct {
	Voices []FugueVoice
	Order  []int
	Answer AnswerKind
	Scale  theory.Scale
}

func (o ExpositionOptions) withDefaults(s Subject) (ExpositionOptions, error) {
	if len(o.Voices) == 0 {
		o.Voices = FugueVoices(4)
	}
	if len(o.Voices) < 2 {
		return o, fmt.Errorf("%w: an exposition needs at least two voices", ErrInvalidSubject)
	}
	if len(o.Order) == 0 {
		o.Order = defaultEntryOrder(len(o.Voices))
	}
	if len(o.Order) != len(o.Voices) {
		return o, fmt.Errorf("%w: entry order names %d voices, have %d", ErrInvalidSubject, len(o.Order), len(o.Voices))
	}
	seen := make(map[int]bool, len(o.Order))
	for _, vi := range o.Order {
		if vi < 0 || vi >= len(o.Voices) || seen[vi] {
			return o, fmt.Errorf("%w: entry order %v is not a permutation", ErrInvalidSubject, o.Order)
		}
		seen[vi] = true
	}
	if o.Answer == "" {
		o.Answer = AnswerTonal
	}
	if o.Scale.IsZero() {
		scale, err := theory.FromTemplate(theory.PitchClass(s.Key), "major")
		if err != nil {
			return o, err
		}
		o.Scale = scale
	}
	return o, nil
}

// BuildExposition states the subject in every voice in turn, alternating
// subject and answer. Voices that have finished their entry continue in
// free counterpoint under the next one.
func BuildExposition(subject Subject, opts ExpositionOptions) (score.Score, error) {
	if len(subject.Notes) == 0 {
		return score.Score{}, fmt.Errorf("%w: no notes", ErrInvalidSubject)
	}
	opts, err := opts.withDefaults(subject)
	if err != nil {
		return score.Score{}, err
	}

	subject = subject.At(0)
	answer := RealAnswer(subject)
	if opts.Answer == AnswerTonal {
		answer = TonalAnswer(subject, opts.Scale)
	}

	voices := make([]score.Voice, len(opts.Voices))
	for i, v := range opts.Voices {
		voices[i] = score.Voice{Name: v.Name}
	}
	entries := make(map[int]Subject, len(opts.Order))

	length := subject.Duration()
	onset := 0.0
	for k, vi := range opts.Order {
		part := opts.Voices[vi]
		entry := subject.At(onset)
		if k%2 == 1 {
			entry = fitRange(answer.At(onset), part.Low, part.High)
		} else if k > 0 {
			entry = fitRange(entry, part.Low, part.High)
		}
		voices[vi].Notes = append(voices[vi].Notes, entry.Notes...)
		entries[vi] = entry

		for _, pi := range opts.Order[:k] {
			notes := voices[pi].Notes
			if len(notes) > 0 && notes[len(notes)-1].End() > onset+1e-6 {
				continue
			}
			voices[pi].Notes = append(voices[pi].Notes,
				continuation(entries[pi], pi, voices, opts.Voices[pi], opts.Scale, onset, length)...)
		}
		onset += length
	}
	return score.Score{Voices: voices}, nil
}

// continuation writes a stepwise line in half notes for voices[self] over
// [start, start+beats). It leans against the direction its entry opened
// with and takes the first candidate that makes no parallel perfect with
// any other voice.
func continuation(entry Subject, self int, voices []score.Voice, part FugueVoice, scale theory.Scale, start, beats float64) []score.Note {
	prior := voices[self].Notes
	if len(prior) == 0 {
		return nil
	}
	dir := 1
	head := entry.Intervals()
	sum := 0
	for _, iv := range head[:len(head)/2] {
		sum += iv
	}
	if sum > 0 {
		dir = -1
	}

	var notes []score.Note
	last := prior[len(prior)-1]
	for t := start; t < start+beats-1e-6; {
		dur := min(continuationBeats, start+beats-t)
		if dur < 0.25 {
			break
		}
		var candidates []int
		for _, step := range []int{2, -2, 1, -1, 3, -3, 4, -4, 0} {
			p := scale.Snap(last.Pitch + step*dir)
			p = min(max(p, part.Low), part.High)
			if !containsInt(candidates, p) {
				candidates = append(candidates, p)
			}
		}

		choice := candidates[0]
		for _, c := range candidates {
			if !parallelWithAny(voices, self, last, c, t) {
				choice = c
				break
			}
		}
		n := score.Note{Pitch: choice, Onset: t, Duration: dur, Velocity: last.Velocity}
		notes = append(notes, n)
		last = n
		t += dur
	}
	return notes
}

func parallelWithAny(voices []score.Voice, self int, from score.Note, to int, beat float64) bool {
	for i, v := range voices {
		if i == self {
			continue
		}
		a, b := v.PitchAt(from.Onset), v.PitchAt(beat)
		if a == score.Rest || b == score.Rest {
			continue
		}
		if theory.IsParallelPerfect(from.Pitch, to, a, b) {
			return true
		}
	}
	return false
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// SubjectReport grades a subject on tonal clarity, melodic mix, rhythmic
// variety, range and directional balance.
type SubjectReport struct {
	Total     int      `json:"total"`
	Max       int      `json:"max"`
	Percent   int      `json:"percent"`
	Tonal     int      `json:"tonal"`
	Melodic   int      `json:"melodic"`
	Rhythmic  int      `json:"rhythmic"`
	Range     int      `json:"range"`
	Balance   int      `json:"balance"`
	StepRatio float64  `json:"step_ratio"`
	Ambitus   int      `json:"ambitus"`
	Notes     int      `json:"notes"`
	Beats     float64  `json:"beats"`
	Issues    []string `json:"issues"`
}

const subjectMaxScore = 15

// EvaluateSubject scores a subject out of 15.
func EvaluateSubject(s Subject) SubjectReport {
	r := SubjectReport{Max: subjectMaxScore, Notes: len(s.Notes), Beats: s.Duration(), Ambitus: s.Ambitus(), Issues: []string{}}
	if len(s.Notes) < 3 {
		r.Issues = append(r.Issues, "subject too short")
		return r
	}

	tonic := theory.PitchClass(s.Key)
	dominant := theory.PitchClass(s.Key + theory.Fifth)
	for _, p := range []int{s.Notes[0].Pitch, s.Notes[len(s.Notes)-1].Pitch} {
		switch theory.PitchClass(p) {
		case tonic:
			r.Tonal += 2
		case dominant:
			r.Tonal++
		}
	}

	intervals := s.Intervals()
	steps, ups, downs := 0, 0, 0
	for _, iv := range intervals {
		if theory.Abs(iv) <= theory.MajorSecond {
			steps++
		}
		switch {
		case iv > 0:
			ups++
		case iv < 0:
			downs++
		}
	}
	r.StepRatio = float64(steps) / float64(len(intervals))
	switch {
	case r.StepRatio >= 0.5 && r.StepRatio <= 0.85:
		r.Melodic = 3
	case r.StepRatio >= 0.3 && r.StepRatio <= 0.95:
		r.Melodic = 1
	}

	durations := make(map[float64]bool)
	for _, n := range s.Notes {
		durations[n.Duration] = true
	}
	r.Rhythmic = min(len(durations)-1, 3)

	switch {
	case r.Ambitus >= 5 && r.Ambitus <= 12:
		r.Range = 3
	case r.Ambitus >= 3 && r.Ambitus <= 16:
		r.Range = 1
	}

	balance := float64(min(ups, downs)) / float64(max(ups+downs, 1))
	switch {
	case balance > 0.3:
		r.Balance = 2
	case balance > 0.15:
		r.Balance = 1
	}

	r.Total = r.Tonal + r.Melodic + r.Rhythmic + r.Range + r.Balance
	r.Percent = r.Total * 100 / r.Max

	if r.Tonal < 2 {
		r.Issues = append(r.Issues, "weak tonal center")
	}
	if r.Melodic == 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("step ratio %.0f%% outside 30-95%%", r.StepRatio*100))
	}
	if r.Rhythmic == 0 {
		r.Issues = append(r.Issues, "no rhythmic variety")
	}
	if r.Range == 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("range of %d semitones", r.Ambitus))
	}
	if r.Balance == 0 {
		r.Issues = append(r.Issues, "motion runs one way")
	}
	return r
}

// PairReport counts findings between two exposition voices.
type PairReport struct {
	Upper    string `json:"upper"`
	Lower    string `json:"lower"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

// ExpositionReport checks that every voice entered and validates each pair
// of voices on its own.
type ExpositionReport struct {
	Voices   int          `json:"voices"`
	Entered  int          `json:"entered"`
	Pairs    []PairReport `json:"pairs"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
}

func EvaluateExposition(s score.Score, v *counterpoint.Validator) ExpositionReport {
	r := ExpositionReport{Voices: len(s.Voices), Pairs: []PairReport{}}
	var active []score.Voice
	for _, voice := range s.Voices {
		if len(voice.Notes) > 0 {
			active = append(active, voice)
		}
	}
	r.Entered = len(active)

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			report := v.ValidateScore(score.Score{Voices: []score.Voice{active[i], active[j]}})
			pair := PairReport{
				Upper:    active[i].Name,
				Lower:    active[j].Name,
				Errors:   len(report.Errors()),
				Warnings: len(report.Warnings()),
			}
			r.Errors += pair.Errors
			r.Warnings += pair.Warnings
			r.Pairs = append(r.Pairs, pair)
		}
	}
	return r
}
