package theory

import (
	"fmt"
	"strings"
)

// Note semitone offsets from C
var noteOffsets = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

var sharpNames = [SemitonesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the sharp spelling of a pitch class.
func PitchClassName(pc int) string {
	return sharpNames[PitchClass(pc)]
}

// PitchName returns scientific pitch notation, e.g. 60 -> "C4".
func PitchName(pitch int) string {
	return fmt.Sprintf("%s%d", PitchClassName(pitch), pitch/SemitonesPerOctave-1)
}

// ParsePitchClass parses "C", "F#", "Bb" (case-insensitive letter).
func ParsePitchClass(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty note name", ErrInvalidChord)
	}
	semitone, ok := noteOffsets[strings.ToUpper(name[:1])]
	if !ok {
		return 0, fmt.Errorf("%w: invalid note letter: %s", ErrInvalidChord, name[:1])
	}
	for _, acc := range name[1:] {
		switch acc {
		case '#':
			semitone++
		case 'b':
			semitone--
		default:
			return 0, fmt.Errorf("%w: invalid accidental in %s", ErrInvalidChord, name)
		}
	}
	return PitchClass(semitone), nil
}

// ParsePitch converts a note name with octave ("C4", "F#3", "Bb-1") to a
// MIDI pitch number. C4 = 60.
func ParsePitch(noteName string) (int, error) {
	if len(noteName) < 2 {
		return 0, fmt.Errorf("%w: note name too short: %s", ErrInvalidChord, noteName)
	}

	idx := 1
	for idx < len(noteName) && (noteName[idx] == '#' || noteName[idx] == 'b') {
		idx++
	}
	if _, err := ParsePitchClass(noteName[:idx]); err != nil {
		return 0, err
	}
	semitone := noteOffsets[strings.ToUpper(noteName[:1])]
	// recover the accidental offset, which may cross the octave (Cb, B#)
	accidental := 0
	for _, acc := range noteName[1:idx] {
		if acc == '#' {
			accidental++
		} else {
			accidental--
		}
	}

	if idx >= len(noteName) {
		return 0, fmt.Errorf("%w: missing octave in note name: %s", ErrInvalidChord, noteName)
	}
	var octave int
	if _, err := fmt.Sscanf(noteName[idx:], "%d", &octave); err != nil {
		return 0, fmt.Errorf("%w: invalid octave in note name %s: %v", ErrInvalidChord, noteName, err)
	}

	// (octave + 1) * 12 + semitone gives C-1 = 0, C4 = 60
	midi := (octave+1)*SemitonesPerOctave + semitone + accidental
	return clampMIDI(midi), nil
}
