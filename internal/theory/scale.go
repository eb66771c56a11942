package theory

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTemplate is returned when scale-degree offsets are not strictly
// increasing within one octave starting at 0.
var ErrInvalidTemplate = errors.New("invalid scale template")

const (
	SemitonesPerOctave = 12

	// Piano range used when callers do not supply bounds
	DefaultLowPitch  = 21
	DefaultHighPitch = 108
)

var scaleTemplates = map[string][]int{
	"ionian":           {0, 2, 4, 5, 7, 9, 11},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"aeolian":          {0, 2, 3, 5, 7, 8, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"natural_minor":    {0, 2, 3, 5, 7, 8, 10},
	"harmonic_minor":   {0, 2, 3, 5, 7, 8, 11},
	"melodic_minor":    {0, 2, 3, 5, 7, 9, 11},
	"pentatonic_major": {0, 2, 4, 7, 9},
	"pentatonic_minor": {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"whole_tone":       {0, 2, 4, 6, 8, 10},
	"diminished":       {0, 2, 3, 5, 6, 8, 9, 11},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// TemplateNames returns the registered scale templates in sorted order
func TemplateNames() []string {
	names := make([]string, 0, len(scaleTemplates))
	for name := range scaleTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scale is an immutable tonic plus ordered degree offsets.
type Scale struct {
	tonic   int
	name    string
	offsets []int
	member  [SemitonesPerOctave]bool
}

// NewScale validates offsets and builds a scale rooted at tonic.
func NewScale(tonic int, name string, offsets []int) (Scale, error) {
	if len(offsets) == 0 || offsets[0] != 0 {
		return Scale{}, fmt.Errorf("%w: offsets must start at 0", ErrInvalidTemplate)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] || offsets[i] >= SemitonesPerOctave {
			return Scale{}, fmt.Errorf("%w: offset %d at degree %d", ErrInvalidTemplate, offsets[i], i)
		}
	}

	s := Scale{
		tonic:   PitchClass(tonic),
		name:    name,
		offsets: append([]int(nil), offsets...),
	}
	for _, off := range s.offsets {
		s.member[PitchClass(s.tonic+off)] = true
	}
	return s, nil
}

// FromTemplate builds a scale from a registered template name.
func FromTemplate(tonic int, template string) (Scale, error) {
	offsets, ok := scaleTemplates[template]
	if !ok {
		return Scale{}, fmt.Errorf("%w: unknown template %q", ErrInvalidTemplate, template)
	}
	return NewScale(tonic, template, offsets)
}

// ParseScale resolves a tonic note name ("E", "F#", "Bb") and template.
func ParseScale(tonicName, template string) (Scale, error) {
	pc, err := ParsePitchClass(tonicName)
	if err != nil {
		return Scale{}, err
	}
	return FromTemplate(pc, template)
}

// MustScale is FromTemplate for package-level presets.
func MustScale(tonic int, template string) Scale {
	s, err := FromTemplate(tonic, template)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Scale) Tonic() int { return s.tonic }

func (s Scale) Name() string { return s.name }

func (s Scale) Size() int { return len(s.offsets) }

// IsZero reports whether the scale was never constructed.
func (s Scale) IsZero() bool { return len(s.offsets) == 0 }

func (s Scale) String() string {
	return fmt.Sprintf("%s %s", PitchClassName(s.tonic), s.name)
}

// Offsets returns a copy of the degree offsets.
func (s Scale) Offsets() []int {
	return append([]int(nil), s.offsets...)
}

// PitchClasses returns the member pitch classes in degree order.
func (s Scale) PitchClasses() []int {
	pcs := make([]int, len(s.offsets))
	for i := range s.offsets {
		pcs[i] = s.degreeClass(i)
	}
	return pcs
}

// Contains reports scale membership of a pitch in any octave.
func (s Scale) Contains(pitch int) bool {
	if s.IsZero() {
		return false
	}
	return s.member[PitchClass(pitch)]
}

// Snap returns the nearest in-scale pitch. Ties go to the lower pitch.
func (s Scale) Snap(pitch int) int {
	if s.IsZero() {
		return pitch
	}
	for d := 0; d < SemitonesPerOctave; d++ {
		if s.Contains(pitch - d) {
			return pitch - d
		}
		if s.Contains(pitch + d) {
			return pitch + d
		}
	}
	return pitch
}

// Step moves n scale degrees from pitch (negative n descends). Off-scale
// input is snapped first.
func (s Scale) Step(pitch, n int) int {
	p := s.Snap(pitch)
	if s.IsZero() {
		return p + n
	}
	dir := 1
	if n < 0 {
		dir = -1
		n = -n
	}
	for moved := 0; moved < n; {
		p += dir
		if s.Contains(p) {
			moved++
		}
	}
	return p
}

// Transpose is Step under the name melodic generators use.
func (s Scale) Transpose(pitch, n int) int { return s.Step(pitch, n) }

// StepWithin is Step clamped to the in-scale pitches of [lo, hi].
func (s Scale) StepWithin(pitch, n, lo, hi int) int {
	p := s.Step(pitch, n)
	if p > hi {
		p = s.Snap(hi)
		if p > hi {
			p = s.Step(hi, -1)
		}
	}
	if p < lo {
		p = s.Snap(lo)
		if p < lo {
			p = s.Step(lo, 1)
		}
	}
	return p
}

// Degree returns the 0-based scale degree of pitch.
func (s Scale) Degree(pitch int) (int, bool) {
	rel := PitchClass(pitch - s.tonic)
	for i, off := range s.offsets {
		if off == rel {
			return i, true
		}
	}
	return 0, false
}

// Pitches lists every in-scale pitch in [lo, hi].
func (s Scale) Pitches(lo, hi int) []int {
	var out []int
	for p := lo; p <= hi; p++ {
		if s.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// Triad stacks two scale thirds on a 0-based degree.
func (s Scale) Triad(degree int) Chord {
	return s.stack(degree, 3)
}

// Seventh stacks three scale thirds on a 0-based degree.
func (s Scale) Seventh(degree int) Chord {
	return s.stack(degree, 4)
}

func (s Scale) stack(degree, size int) Chord {
	if s.IsZero() {
		return Chord{}
	}
	tones := make([]int, 0, size)
	for i := 0; i < size; i++ {
		pc := s.degreeClass(degree + 2*i)
		if !containsInt(tones, pc) {
			tones = append(tones, pc)
		}
	}
	return Chord{Root: tones[0], Bass: tones[0], Tones: tones}
}

// ChromaticNeighbors returns the pitches one semitone below and above.
func (s Scale) ChromaticNeighbors(pitch int) [2]int {
	return [2]int{pitch - 1, pitch + 1}
}

func (s Scale) degreeClass(degree int) int {
	n := len(s.offsets)
	d := ((degree % n) + n) % n
	return PitchClass(s.tonic + s.offsets[d])
}

// PitchClass reduces a pitch modulo the octave.
func PitchClass(pitch int) int {
	return ((pitch % SemitonesPerOctave) + SemitonesPerOctave) % SemitonesPerOctave
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
