package theory

// Interval helpers work on semitone distances between MIDI pitches.

const (
	Unison       = 0
	MinorSecond  = 1
	MajorSecond  = 2
	MinorThird   = 3
	MajorThird   = 4
	Tritone      = 6
	Fifth        = 7
	MinorSeventh = 10
	MajorSeventh = 11
	Octave       = 12
)

// Roughness by interval class (0-6); minor second highest, fifth/octave near zero.
var DefaultRoughness = [7]float64{0.0, 1.0, 0.3, 0.2, 0.15, 0.05, 0.8}

// SimpleInterval is the absolute distance reduced into one octave.
func SimpleInterval(a, b int) int {
	return Abs(a-b) % SemitonesPerOctave
}

// IntervalClass folds a distance into 0..6.
func IntervalClass(a, b int) int {
	s := SimpleInterval(a, b)
	if s > SemitonesPerOctave/2 {
		return SemitonesPerOctave - s
	}
	return s
}

// IsPerfect reports unisons, fifths and octaves (and their compounds).
func IsPerfect(semitones int) bool {
	s := Abs(semitones) % SemitonesPerOctave
	return s == Unison || s == Fifth
}

// IsConsonant reports imperfect and perfect consonances. The fourth is
// treated as consonant here; callers decide when it counts against the bass.
func IsConsonant(semitones int) bool {
	switch Abs(semitones) % SemitonesPerOctave {
	case 0, 3, 4, 5, 7, 8, 9:
		return true
	}
	return false
}

// IsAwkwardLeap reports melodic tritones, sevenths and leaps beyond an octave.
func IsAwkwardLeap(semitones int) bool {
	a := Abs(semitones)
	return a == Tritone || a == MinorSeventh || a == MajorSeventh || a > Octave
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
