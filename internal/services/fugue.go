package services

import (
	"context"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/melody"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

func resolveSubject(spec models.SubjectSpec) (melody.Subject, melody.AnswerKind, error) {
	answer, err := melody.ParseAnswerKind(spec.Answer)
	if err != nil {
		return melody.Subject{}, "", err
	}
	subject, err := melody.NewSubject(spec.Pitches, spec.Durations)
	if err != nil {
		return melody.Subject{}, "", err
	}
	return subject, answer, nil
}

// arrangerFor returns the shared arranger, or one whose melodic voices
// imitate the given subject.
func (c *Composer) arrangerFor(spec *models.SubjectSpec) (*orchestrator.Arranger, error) {
	if spec == nil {
		return c.arranger, nil
	}
	subject, answer, err := resolveSubject(*spec)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewArranger(c.engine.Orchestrator, c.engine.Tension, c.optimizer,
		melody.NewImitation(subject, answer), melody.NewCyclicHarmony())
}

// figurate spreads each voiced chord into the pattern over its duration
func figurate(name string, chords []VoicedChord) ([]score.Note, error) {
	pattern, err := melody.ParsePattern(name)
	if err != nil {
		return nil, err
	}
	var out []score.Note
	for _, ch := range chords {
		notes, err := melody.Arpeggiate(pattern, ch.Voicing, ch.Duration)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			n.Onset += ch.Beat
			out = append(out, n)
		}
	}
	return out, nil
}

// ExpositionResult is a fugue exposition with its grading
type ExpositionResult struct {
	Subject      melody.SubjectReport    `json:"subject"`
	Answer       melody.Subject          `json:"answer"`
	Score        score.Score             `json:"score"`
	Exposition   melody.ExpositionReport `json:"exposition"`
	Counterpoint counterpoint.Report     `json:"counterpoint"`
}

// Exposition builds and grades a fugue exposition on a subject
func (c *Composer) Exposition(ctx context.Context, req models.ExpositionRequest) (*ExpositionResult, error) {
	var result *ExpositionResult
	fields := logger.Fields{"notes": len(req.Subject.Pitches), "voices": req.Voices}
	err := c.observe(ctx, "exposition", fields, func(ctx context.Context) error {
		subject, answerKind, err := resolveSubject(req.Subject)
		if err != nil {
			return err
		}
		opts := melody.ExpositionOptions{Order: req.Order, Answer: answerKind}
		if req.Voices > 0 {
			opts.Voices = melody.FugueVoices(req.Voices)
		}
		if req.Scale != nil {
			scale, err := req.Scale.Resolve()
			if err != nil {
				return err
			}
			opts.Scale = scale
		}

		s, err := melody.BuildExposition(subject, opts)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		answer := melody.RealAnswer(subject)
		if answerKind == melody.AnswerTonal {
			key := opts.Scale
			if key.IsZero() {
				key = theory.MustScale(theory.PitchClass(subject.Key), "major")
			}
			answer = melody.TonalAnswer(subject, key)
		}

		validator := c.analyzer.Validator()
		result = &ExpositionResult{
			Subject:      melody.EvaluateSubject(subject),
			Answer:       answer,
			Score:        s,
			Exposition:   melody.EvaluateExposition(s, validator),
			Counterpoint: validator.ValidateScore(s),
		}
		c.recordFindings(ctx, result.Counterpoint)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
