package voicing

import (
	"errors"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Progression voices chords in order, threading each result into the next
// request. prev may be nil. On infeasibility the returned error carries the
// failing step index and the voicings found so far are returned with it.
func (o *Optimizer) Progression(chords []theory.Chord, prev score.Voicing) ([]score.Voicing, error) {
	out := make([]score.Voicing, 0, len(chords))
	for i, chord := range chords {
		req := Request{Chord: chord, Previous: prev}
		if i+1 < len(chords) {
			req.Next = &chords[i+1]
		}
		res, err := o.Voice(req)
		if err != nil {
			var inf *InfeasibleError
			if errors.As(err, &inf) {
				inf.Step = i
			}
			return out, err
		}
		out = append(out, res.Voicing)
		prev = res.Voicing
	}
	return out, nil
}

// Movement summarizes how much a voicing sequence moves.
type Movement struct {
	Transitions int     `json:"transitions"`
	Total       int     `json:"total_semitones"`
	Mean        float64 `json:"mean_semitones"`
	MaxLeap     int     `json:"max_leap"`
	CommonTones int     `json:"common_tones"`
}

// Stats measures voice movement between consecutive voicings.
func Stats(voicings []score.Voicing) Movement {
	var m Movement
	for i := 1; i < len(voicings); i++ {
		a, b := voicings[i-1], voicings[i]
		if len(a) != len(b) {
			continue
		}
		m.Transitions++
		for v := range b {
			if a[v] == score.Rest || b[v] == score.Rest {
				continue
			}
			d := theory.Abs(b[v] - a[v])
			m.Total += d
			m.MaxLeap = max(m.MaxLeap, d)
			if d == 0 {
				m.CommonTones++
			}
		}
	}
	if m.Transitions > 0 {
		m.Mean = float64(m.Total) / float64(m.Transitions)
	}
	return m
}
