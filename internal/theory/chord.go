package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChord is returned for unparseable chord symbols or note names.
var ErrInvalidChord = errors.New("invalid chord")

// Chord is a pitch-class set with a designated root and bass.
// Tones are kept in structural order (root, third, fifth, ...).
type Chord struct {
	Root   int    `json:"root" yaml:"root"`
	Bass   int    `json:"bass" yaml:"bass"`
	Tones  []int  `json:"tones" yaml:"tones"`
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
}

// NewChord normalizes tones to pitch classes. The root must be a tone; a
// bass outside the tone set is appended as an added tone.
func NewChord(root int, tones []int, bass int) (Chord, error) {
	root, bass = PitchClass(root), PitchClass(bass)
	c := Chord{Root: root, Bass: bass}
	for _, t := range tones {
		pc := PitchClass(t)
		if !containsInt(c.Tones, pc) {
			c.Tones = append(c.Tones, pc)
		}
	}
	if !containsInt(c.Tones, root) {
		return Chord{}, fmt.Errorf("%w: root %s not among tones", ErrInvalidChord, PitchClassName(root))
	}
	if !containsInt(c.Tones, bass) {
		c.Tones = append(c.Tones, bass)
	}
	return c, nil
}

// Contains reports whether pc (any pitch) is a chord tone.
func (c Chord) Contains(pitch int) bool {
	return containsInt(c.Tones, PitchClass(pitch))
}

// WithBass returns an inversion (or slash chord) over pc.
func (c Chord) WithBass(pc int) Chord {
	out := Chord{Root: c.Root, Bass: PitchClass(pc), Tones: append([]int(nil), c.Tones...)}
	if !containsInt(out.Tones, out.Bass) {
		out.Tones = append(out.Tones, out.Bass)
	}
	return out
}

// IsZero reports an empty chord.
func (c Chord) IsZero() bool { return len(c.Tones) == 0 }

// Pitches renders the chord in close position from the root at octave
// (C4 = octave 4), with the bass placed below when it differs from the root.
func (c Chord) Pitches(octave int) []int {
	base := (octave+1)*SemitonesPerOctave + c.Root
	notes := make([]int, 0, len(c.Tones)+1)
	if c.Bass != c.Root {
		bass := (octave+1)*SemitonesPerOctave + c.Bass
		for bass >= base {
			bass -= SemitonesPerOctave
		}
		notes = append(notes, clampMIDI(bass))
	}
	prev := base - 1
	for _, pc := range c.Tones {
		if pc == c.Bass && c.Bass != c.Root {
			continue
		}
		p := (octave+1)*SemitonesPerOctave + pc
		for p <= prev {
			p += SemitonesPerOctave
		}
		notes = append(notes, clampMIDI(p))
		prev = p
	}
	return notes
}

func (c Chord) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	names := make([]string, len(c.Tones))
	for i, pc := range c.Tones {
		names[i] = PitchClassName(pc)
	}
	s := "[" + strings.Join(names, " ") + "]"
	if c.Bass != c.Root {
		s += "/" + PitchClassName(c.Bass)
	}
	return s
}

// ParseChord converts a chord symbol like "Dm7", "Cmaj7/E" or "G7sus4" to a Chord.
func ParseChord(symbol string) (Chord, error) {
	symbol = strings.TrimSpace(symbol)
	body, bassName, slash := strings.Cut(symbol, "/")

	root, err := parseRootNote(body)
	if err != nil {
		return Chord{}, err
	}
	rootPC, _ := ParsePitchClass(root)

	rest := body[len(root):]
	quality := parseChordQuality(rest)
	extensions := parseExtensions(rest)
	intervals := buildChordIntervals(quality, extensions)

	tones := make([]int, len(intervals))
	for i, iv := range intervals {
		tones[i] = rootPC + iv
	}

	bass := rootPC
	if slash {
		bass, err = ParsePitchClass(bassName)
		if err != nil {
			return Chord{}, fmt.Errorf("%w: bass of %q: %v", ErrInvalidChord, symbol, err)
		}
	}

	c, err := NewChord(rootPC, tones, bass)
	if err != nil {
		return Chord{}, err
	}
	c.Symbol = symbol
	return c, nil
}

// parseRootNote extracts the root note name (C, C#, Db, ...) from a chord symbol
func parseRootNote(chordSymbol string) (string, error) {
	if len(chordSymbol) == 0 {
		return "", fmt.Errorf("%w: empty chord symbol", ErrInvalidChord)
	}

	root := chordSymbol[:1]
	if len(chordSymbol) > 1 && (chordSymbol[1] == '#' || chordSymbol[1] == 'b') {
		root = chordSymbol[:2]
	}

	if _, ok := noteOffsets[strings.ToUpper(root[:1])]; !ok || root[0] < 'A' || root[0] > 'G' {
		return "", fmt.Errorf("%w: invalid root note: %s", ErrInvalidChord, root)
	}
	return root, nil
}

// parseChordQuality reads the triad quality following the root
func parseChordQuality(rest string) string {
	switch {
	case strings.HasPrefix(rest, "maj"):
		return "major"
	case strings.HasPrefix(rest, "min"), strings.HasPrefix(rest, "m"):
		return "minor"
	case strings.HasPrefix(rest, "dim"):
		return "diminished"
	case strings.HasPrefix(rest, "aug"), strings.HasPrefix(rest, "+"):
		return "augmented"
	case strings.Contains(rest, "sus2"):
		return "sus2"
	case strings.Contains(rest, "sus4"), strings.Contains(rest, "sus"):
		return "sus4"
	}
	return "major"
}

// parseExtensions reads sevenths and upper extensions
func parseExtensions(rest string) []string {
	var extensions []string

	for _, add := range []string{"add9", "add11", "add13"} {
		if strings.Contains(rest, add) {
			extensions = append(extensions, add)
			rest = strings.ReplaceAll(rest, add, "")
		}
	}

	// "maj" must be read before the quality markers are stripped
	seventh := "7"
	if strings.Contains(rest, "maj") {
		seventh = "maj7"
	}
	rest = strings.NewReplacer("min", "", "maj", "", "dim", "", "aug", "", "sus2", "", "sus4", "", "sus", "").Replace(rest)
	rest = strings.TrimPrefix(rest, "m")

	switch {
	case strings.Contains(rest, "13"):
		extensions = append(extensions, seventh, "9", "13")
	case strings.Contains(rest, "11"):
		extensions = append(extensions, seventh, "9", "11")
	case strings.Contains(rest, "9"):
		extensions = append(extensions, seventh, "9")
	case strings.Contains(rest, "7"):
		extensions = append(extensions, seventh)
	}
	return extensions
}

// buildChordIntervals converts quality and extensions to semitone offsets
func buildChordIntervals(quality string, extensions []string) []int {
	var intervals []int

	switch quality {
	case "minor":
		intervals = []int{0, 3, 7}
	case "diminished":
		intervals = []int{0, 3, 6}
	case "augmented":
		intervals = []int{0, 4, 8}
	case "sus2":
		intervals = []int{0, 2, 7}
	case "sus4":
		intervals = []int{0, 5, 7}
	default:
		intervals = []int{0, 4, 7}
	}

	for _, ext := range extensions {
		switch ext {
		case "7":
			if quality == "diminished" {
				intervals = append(intervals, 9)
			} else {
				intervals = append(intervals, 10)
			}
		case "maj7":
			intervals = append(intervals, 11)
		case "9", "add9":
			intervals = append(intervals, 14)
		case "11", "add11":
			intervals = append(intervals, 17)
		case "13", "add13":
			intervals = append(intervals, 21)
		}
	}
	return intervals
}

// ChordProposal is one caller-supplied harmonic choice: either a scale degree
// or an absolute chord symbol, with an optional bass pitch class.
type ChordProposal struct {
	Degree   *int    `json:"degree,omitempty" yaml:"degree,omitempty"`
	Symbol   string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Seventh  bool    `json:"seventh,omitempty" yaml:"seventh,omitempty"`
	Bass     *int    `json:"bass,omitempty" yaml:"bass,omitempty"`
	Beat     float64 `json:"beat" yaml:"beat"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// Resolve turns the proposal into a Chord within scale.
func (p ChordProposal) Resolve(scale Scale) (Chord, error) {
	var (
		c   Chord
		err error
	)
	switch {
	case p.Symbol != "":
		c, err = ParseChord(p.Symbol)
		if err != nil {
			return Chord{}, err
		}
	case p.Degree != nil:
		if scale.IsZero() {
			return Chord{}, fmt.Errorf("%w: degree proposal without a scale", ErrInvalidChord)
		}
		if p.Seventh {
			c = scale.Seventh(*p.Degree)
		} else {
			c = scale.Triad(*p.Degree)
		}
	default:
		return Chord{}, fmt.Errorf("%w: proposal needs a degree or symbol", ErrInvalidChord)
	}

	if p.Bass != nil {
		c = c.WithBass(*p.Bass)
	}
	return c, nil
}

func clampMIDI(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}
