package models

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

const defaultMode = "major"

// ScaleSpec names a scale by tonic and template
type ScaleSpec struct {
	Tonic string `json:"tonic" binding:"required"` // "C", "F#", "Bb"
	Mode  string `json:"mode"`                     // template name, defaults to major
}

// Resolve builds the scale
func (s ScaleSpec) Resolve() (theory.Scale, error) {
	mode := s.Mode
	if mode == "" {
		mode = defaultMode
	}
	return theory.ParseScale(s.Tonic, mode)
}

// FormSpec selects sections either explicitly or by preset name. BPM and
// Minutes size a preset; zero values take the preset's defaults.
type FormSpec struct {
	Sections []tension.Section `json:"sections,omitempty"`
	Form     string            `json:"form,omitempty"`
	BPM      float64           `json:"bpm,omitempty"`
	Minutes  float64           `json:"minutes,omitempty"`
}

// Resolve returns the validated section list
func (f FormSpec) Resolve() ([]tension.Section, error) {
	sections := f.Sections
	if f.Form != "" {
		var ok bool
		if f.BPM > 0 && f.Minutes > 0 {
			sections, ok = tension.FormAt(f.Form, f.BPM, f.Minutes)
		} else {
			sections, ok = tension.Form(f.Form)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown form %q", tension.ErrInvalidSection, f.Form)
		}
	}
	if err := tension.ValidateSections(sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// VoicingRequest asks for a voiced progression. Pattern, when set, also
// spreads each voicing into an accompaniment figure.
type VoicingRequest struct {
	Scale    *ScaleSpec             `json:"scale,omitempty"` // required for degree proposals
	Chords   []theory.ChordProposal `json:"chords" binding:"required,min=1"`
	Previous []int                  `json:"previous,omitempty"`
	Pattern  string                 `json:"pattern,omitempty"` // bwv846, ascending, alberti
}

// SubjectSpec is a fugue subject as parallel pitch and duration lists
type SubjectSpec struct {
	Pitches   []int     `json:"pitches" binding:"required,min=1"`
	Durations []float64 `json:"durations" binding:"required,min=1"`
	Answer    string    `json:"answer,omitempty"` // real or tonal, defaults to tonal
}

// ExpositionRequest asks for a fugue exposition. Voices defaults to four;
// Order lists voice indexes, highest voice 0, in order of entry.
type ExpositionRequest struct {
	Subject SubjectSpec `json:"subject" binding:"required"`
	Scale   *ScaleSpec  `json:"scale,omitempty"`
	Voices  int         `json:"voices,omitempty"`
	Order   []int       `json:"order,omitempty"`
}

// ScoreRequest carries a passage for validation and measurement
type ScoreRequest struct {
	Tracks        []Track         `json:"tracks" binding:"required,min=1"`
	Tonic         string          `json:"tonic,omitempty"` // reference pitch class for harmonic tension
	Target        *FormSpec       `json:"target,omitempty"`
	EntropyTarget *entropy.Target `json:"entropy_target,omitempty"`
}

// Score converts the tracks, highest voice first as sent
func (r ScoreRequest) Score() score.Score {
	s := score.Score{Voices: make([]score.Voice, len(r.Tracks))}
	for i, t := range r.Tracks {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("voice_%d", i+1)
		}
		v := score.Voice{Name: name, Role: t.Role, Notes: ToNotes(t.Notes)}
		v.Sort()
		s.Voices[i] = v
	}
	return s
}

// TonicPitchClass parses Tonic, defaulting to C
func (r ScoreRequest) TonicPitchClass() (int, error) {
	if r.Tonic == "" {
		return 0, nil
	}
	return theory.ParsePitchClass(r.Tonic)
}

// ArrangementRequest asks for a full arrangement. StyleTarget overrides the
// named Style preset. A Subject switches the melodic voices from random
// walks to imitation of that subject.
type ArrangementRequest struct {
	FormSpec
	Scale       ScaleSpec     `json:"scale" binding:"required"`
	Style       string        `json:"style,omitempty"`
	StyleTarget *style.Target `json:"style_target,omitempty"`
	Subject     *SubjectSpec  `json:"subject,omitempty"`
	Seed        uint64        `json:"seed"`
}
