package models

import (
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
)

// NoteEvent represents a single musical note with timing and pitch information
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
}

// ChordEvent represents a chord with timing information
type ChordEvent struct {
	ChordSymbol   string  `json:"chordSymbol"`
	StartBeats    float64 `json:"startBeats"`
	DurationBeats float64 `json:"durationBeats"`
}

// Track is one exported voice
type Track struct {
	Name    string      `json:"name"`
	Role    string      `json:"role,omitempty"`
	Program int         `json:"program,omitempty"`
	Notes   []NoteEvent `json:"notes"`
}

// Export is a score in the note-event shape clients import into a DAW
type Export struct {
	Tracks []Track      `json:"tracks"`
	Chords []ChordEvent `json:"chords,omitempty"`
}

// NotesFromVoice converts a voice's notes to note events in onset order
func NotesFromVoice(v score.Voice) []NoteEvent {
	events := make([]NoteEvent, len(v.Notes))
	for i, n := range v.Notes {
		events[i] = NoteEvent{
			MidiNoteNumber: n.Pitch,
			Velocity:       n.Velocity,
			StartBeats:     n.Onset,
			DurationBeats:  n.Duration,
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartBeats < events[j].StartBeats })
	return events
}

// ToNotes converts note events back to score notes
func ToNotes(events []NoteEvent) []score.Note {
	notes := make([]score.Note, len(events))
	for i, e := range events {
		notes[i] = score.Note{
			Pitch:    e.MidiNoteNumber,
			Onset:    e.StartBeats,
			Duration: e.DurationBeats,
			Velocity: e.Velocity,
		}
	}
	return notes
}

// ExportScore builds one track per voice. program maps a voice to its MIDI
// program; it may be nil.
func ExportScore(s score.Score, program func(score.Voice) int) Export {
	out := Export{Tracks: make([]Track, 0, len(s.Voices))}
	for _, v := range s.Voices {
		t := Track{Name: v.Name, Role: v.Role, Notes: NotesFromVoice(v)}
		if program != nil {
			t.Program = program(v)
		}
		out.Tracks = append(out.Tracks, t)
	}
	return out
}
