package melody

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

const defaultVelocity = 80

// Imitation builds lines out of one subject: statements of the subject and
// its answer in turn, moved into the voice's register and the request's
// scale. The lead opens with the subject and the other roles with the
// answer. Statements run at double speed above DiminishAbove and half speed
// below AugmentBelow; above InvertAbove every fourth statement is inverted.
type Imitation struct {
	Subject       Subject
	Answer        AnswerKind
	DiminishAbove float64
	AugmentBelow  float64
	InvertAbove   float64
}

func NewImitation(subject Subject, answer AnswerKind) *Imitation {
	return &Imitation{
		Subject:       subject,
		Answer:        answer,
		DiminishAbove: 0.7,
		AugmentBelow:  0.2,
		InvertAbove:   0.5,
	}
}

// Generate implements orchestrator.MelodyGenerator.
func (g *Imitation) Generate(ctx context.Context, req orchestrator.MelodyRequest) ([]score.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if len(g.Subject.Notes) == 0 {
		return nil, fmt.Errorf("%w: no notes", ErrInvalidSubject)
	}

	home := snapTo(toTonic(g.Subject.At(0), req.Scale), req.Scale)
	answer := RealAnswer(home)
	if g.Answer != AnswerReal {
		answer = TonalAnswer(home, req.Scale)
	}
	answer = snapTo(answer, req.Scale)

	switch {
	case req.Tension >= g.DiminishAbove:
		home, answer = home.Diminish(2), answer.Diminish(2)
	case req.Tension < g.AugmentBelow:
		home, answer = home.Augment(2), answer.Augment(2)
	}

	lo, hi := req.Target.Bounds()
	opening := 0
	if req.Voice.Role != orchestrator.RoleLead {
		opening = 1
	}

	var notes []score.Note
	onset := 0.0
	for k := 0; onset < req.Beats; k++ {
		stmt := home
		if (k+opening)%2 == 1 {
			stmt = answer
		}
		if k%4 == 3 && req.Tension >= g.InvertAbove {
			stmt = snapTo(stmt.Invert(stmt.Notes[0].Pitch), req.Scale)
		}
		stmt = fitRange(stmt, lo, hi).At(onset)

		length := stmt.Duration()
		if length <= 0 {
			break
		}
		for _, n := range stmt.Notes {
			if n.Onset >= req.Beats {
				break
			}
			n.Duration = min(n.Duration, req.Beats-n.Onset)
			if n.Velocity == 0 {
				n.Velocity = defaultVelocity
			}
			notes = append(notes, n)
		}
		onset += length
	}
	return notes, nil
}

// toTonic transposes the subject so that its key lands on the nearest
// pitch of the scale tonic.
func toTonic(s Subject, scale theory.Scale) Subject {
	if scale.IsZero() {
		return s
	}
	return s.Transpose(nearest(s.Key, scale.Tonic()) - s.Key)
}

func snapTo(s Subject, scale theory.Scale) Subject {
	out := s.clone()
	for i := range out.Notes {
		out.Notes[i].Pitch = scale.Snap(out.Notes[i].Pitch)
	}
	return out
}
