package melody

import (
	"errors"
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

var ErrInvalidSubject = errors.New("invalid subject")

// Subject is a fugue subject: a single line and the pitch of its key
// center. Transformations return new subjects and keep the first onset.
type Subject struct {
	Notes []score.Note `json:"notes"`
	Key   int          `json:"key"`
}

// NewSubject lays pitches out back to back from onset 0. The key is the
// first pitch.
func NewSubject(pitches []int, durations []float64) (Subject, error) {
	if len(pitches) == 0 {
		return Subject{}, fmt.Errorf("%w: no notes", ErrInvalidSubject)
	}
	if len(pitches) != len(durations) {
		return Subject{}, fmt.Errorf("%w: %d pitches but %d durations", ErrInvalidSubject, len(pitches), len(durations))
	}
	notes := make([]score.Note, len(pitches))
	onset := 0.0
	for i, p := range pitches {
		if p < 0 || p > 127 {
			return Subject{}, fmt.Errorf("%w: pitch %d outside 0..127", ErrInvalidSubject, p)
		}
		if durations[i] <= 0 {
			return Subject{}, fmt.Errorf("%w: note %d has no duration", ErrInvalidSubject, i)
		}
		notes[i] = score.Note{Pitch: p, Onset: onset, Duration: durations[i], Velocity: 80}
		onset += durations[i]
	}
	return Subject{Notes: notes, Key: pitches[0]}, nil
}

// SubjectFromIntervals builds a subject from a starting pitch and the moves
// between consecutive notes, so len(intervals) == len(durations)-1.
func SubjectFromIntervals(start int, intervals []int, durations []float64) (Subject, error) {
	if len(intervals) != len(durations)-1 {
		return Subject{}, fmt.Errorf("%w: %d intervals for %d notes", ErrInvalidSubject, len(intervals), len(durations))
	}
	pitches := make([]int, len(durations))
	pitches[0] = start
	for i, iv := range intervals {
		pitches[i+1] = pitches[i] + iv
	}
	return NewSubject(pitches, durations)
}

func (s Subject) Pitches() []int {
	out := make([]int, len(s.Notes))
	for i, n := range s.Notes {
		out[i] = n.Pitch
	}
	return out
}

// Duration is the span from the first onset to the last note's end.
func (s Subject) Duration() float64 {
	if len(s.Notes) == 0 {
		return 0
	}
	return s.Notes[len(s.Notes)-1].End() - s.Notes[0].Onset
}

// Intervals returns the directed moves between consecutive notes.
func (s Subject) Intervals() []int {
	if len(s.Notes) < 2 {
		return nil
	}
	out := make([]int, len(s.Notes)-1)
	for i := range out {
		out[i] = s.Notes[i+1].Pitch - s.Notes[i].Pitch
	}
	return out
}

// Ambitus is the distance between the highest and lowest pitch.
func (s Subject) Ambitus() int {
	if len(s.Notes) == 0 {
		return 0
	}
	lo, hi := s.Notes[0].Pitch, s.Notes[0].Pitch
	for _, n := range s.Notes[1:] {
		lo, hi = min(lo, n.Pitch), max(hi, n.Pitch)
	}
	return hi - lo
}

func (s Subject) clone() Subject {
	return Subject{Notes: append([]score.Note(nil), s.Notes...), Key: s.Key}
}

// At moves the subject so that it starts at onset.
func (s Subject) At(onset float64) Subject {
	out := s.clone()
	if len(out.Notes) == 0 {
		return out
	}
	shift := onset - out.Notes[0].Onset
	for i := range out.Notes {
		out.Notes[i].Onset += shift
	}
	return out
}

// Transpose shifts every pitch and the key by n semitones.
func (s Subject) Transpose(n int) Subject {
	out := s.clone()
	for i := range out.Notes {
		out.Notes[i].Pitch += n
	}
	out.Key += n
	return out
}

// Invert mirrors every pitch around axis, which becomes the key. Pass the
// first pitch to invert around the head.
func (s Subject) Invert(axis int) Subject {
	out := s.clone()
	for i := range out.Notes {
		out.Notes[i].Pitch = 2*axis - out.Notes[i].Pitch
	}
	out.Key = axis
	return out
}

// Augment stretches onsets and durations by factor around the first onset.
func (s Subject) Augment(factor float64) Subject {
	out := s.clone()
	if len(out.Notes) == 0 {
		return out
	}
	base := out.Notes[0].Onset
	for i := range out.Notes {
		out.Notes[i].Onset = base + (out.Notes[i].Onset-base)*factor
		out.Notes[i].Duration *= factor
	}
	return out
}

// Diminish compresses the subject by factor.
func (s Subject) Diminish(factor float64) Subject {
	return s.Augment(1 / factor)
}

// Retrograde plays the pitches backwards over the original rhythm.
func (s Subject) Retrograde() Subject {
	out := s.clone()
	n := len(out.Notes)
	if n == 0 {
		return out
	}
	onset := out.Notes[0].Onset
	for i := range out.Notes {
		out.Notes[i].Pitch = s.Notes[n-1-i].Pitch
		out.Notes[i].Onset = onset
		onset += out.Notes[i].Duration
	}
	out.Key = out.Notes[0].Pitch
	return out
}

// AnswerKind selects how the second entry of an exposition is derived.
type AnswerKind string

const (
	AnswerReal  AnswerKind = "real"
	AnswerTonal AnswerKind = "tonal"
)

func ParseAnswerKind(s string) (AnswerKind, error) {
	switch AnswerKind(s) {
	case AnswerReal, AnswerTonal:
		return AnswerKind(s), nil
	case "":
		return AnswerTonal, nil
	}
	return "", fmt.Errorf("%w: unknown answer %q", ErrInvalidSubject, s)
}

// RealAnswer is the subject a fifth higher with every interval kept.
func RealAnswer(s Subject) Subject {
	return s.Transpose(theory.Fifth)
}

// TonalAnswer answers at the dominant while keeping the head inside the
// home key: up to and including the first later note on the dominant,
// tonic and dominant swap roles and other notes stay diatonic. The tail is
// a real answer snapped into the dominant key.
func TonalAnswer(s Subject, key theory.Scale) Subject {
	out := s.clone()
	if len(out.Notes) == 0 {
		return out
	}
	home := pcSet(key.PitchClasses())
	dominantKey := make(map[int]bool, len(home))
	for pc := range home {
		dominantKey[theory.PitchClass(pc+theory.Fifth)] = true
	}

	tonic := theory.PitchClass(s.Key)
	dominant := theory.PitchClass(s.Key + theory.Fifth)

	headEnd := len(s.Notes)
	for i := 1; i < len(s.Notes); i++ {
		if theory.PitchClass(s.Notes[i].Pitch) == dominant {
			headEnd = i + 1
			break
		}
	}

	for i, n := range s.Notes {
		raw := n.Pitch + theory.Fifth
		switch {
		case i == 0:
			out.Notes[i].Pitch = nearestAbove(n.Pitch, dominant)
		case i < headEnd:
			var target int
			switch pc := theory.PitchClass(n.Pitch); {
			case pc == tonic:
				target = dominant
			case pc == dominant:
				target = tonic
			case home[theory.PitchClass(raw)]:
				target = theory.PitchClass(raw)
			default:
				target = nearestInSet(theory.PitchClass(raw), home)
			}
			out.Notes[i].Pitch = nearest(raw, target)
		default:
			pc := theory.PitchClass(raw)
			if home[pc] || dominantKey[pc] {
				out.Notes[i].Pitch = raw
			} else {
				out.Notes[i].Pitch = nearest(raw, nearestInSet(pc, dominantKey))
			}
		}
	}
	out.Key = out.Notes[0].Pitch
	return out
}

func pcSet(pcs []int) map[int]bool {
	set := make(map[int]bool, len(pcs))
	for _, pc := range pcs {
		set[pc] = true
	}
	return set
}

// nearestAbove is the lowest pitch at or above ref with class pc.
func nearestAbove(ref, pc int) int {
	return ref + theory.PitchClass(pc-ref)
}

// nearest is the pitch with class pc closest to ref; ties go up.
func nearest(ref, pc int) int {
	up := nearestAbove(ref, pc)
	down := up - theory.SemitonesPerOctave
	if up-ref <= ref-down {
		return up
	}
	return down
}

// nearestInSet snaps a pitch class to the closest member, trying above
// before below at each distance.
func nearestInSet(pc int, set map[int]bool) int {
	for d := 1; d <= 6; d++ {
		if set[theory.PitchClass(pc+d)] {
			return theory.PitchClass(pc + d)
		}
		if set[theory.PitchClass(pc-d)] {
			return theory.PitchClass(pc - d)
		}
	}
	return pc
}

// fitRange shifts s by whole octaves so that its mean pitch sits nearest
// the center of [lo, hi].
func fitRange(s Subject, lo, hi int) Subject {
	if len(s.Notes) == 0 {
		return s
	}
	sum := 0
	for _, n := range s.Notes {
		sum += n.Pitch
	}
	mean := float64(sum) / float64(len(s.Notes))
	center := float64(lo+hi) / 2
	shift := int(math.Round((center-mean)/theory.SemitonesPerOctave)) * theory.SemitonesPerOctave
	if shift == 0 {
		return s
	}
	return s.Transpose(shift)
}
