package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

var ErrInvalidRequest = errors.New("invalid arrangement request")

// MelodyRequest asks for one voice's line over one active stretch of one
// section. Returned notes are relative to Start: onset 0 is the first beat.
type MelodyRequest struct {
	Voice   VoiceConfig
	Section string
	Start   float64
	Beats   float64
	Tension float64
	Target  style.Target
	Scale   theory.Scale
	Seed    uint64
}

// HarmonyRequest asks for the chord proposals of one section. Proposal beats
// are relative to Start.
type HarmonyRequest struct {
	Section string
	Start   float64
	Beats   float64
	Tension float64
	Scale   theory.Scale
	Seed    uint64
}

// MelodyGenerator proposes melodic material against a style target.
type MelodyGenerator interface {
	Generate(ctx context.Context, req MelodyRequest) ([]score.Note, error)
}

// HarmonyGenerator proposes chords for a section.
type HarmonyGenerator interface {
	Propose(ctx context.Context, req HarmonyRequest) ([]theory.ChordProposal, error)
}

// Request is one arrangement job.
type Request struct {
	Sections []tension.Section
	Style    style.Target
	Scale    theory.Scale
	Seed     uint64
}

// ChordEvent is a voiced chord at an absolute beat.
type ChordEvent struct {
	Section  string               `json:"section"`
	Beat     float64              `json:"beat"`
	Duration float64              `json:"duration"`
	Chord    theory.Chord         `json:"chord"`
	Voicing  score.Voicing        `json:"voicing"`
	Tension  float64              `json:"tension"`
	Proposal theory.ChordProposal `json:"-"`
}

// VoiceTarget records the style target a voice was generated against.
type VoiceTarget struct {
	Voice   string       `json:"voice"`
	Section string       `json:"section"`
	Range   Range        `json:"range"`
	Tension float64      `json:"tension"`
	Target  style.Target `json:"target"`
}

// Arrangement is the product of Arrange.
type Arrangement struct {
	Score   score.Score    `json:"score"`
	Curve   *tension.Curve `json:"-"`
	Plan    *Plan          `json:"plan"`
	Chords  []ChordEvent   `json:"chords"`
	Targets []VoiceTarget  `json:"targets"`
}

// Voicings returns the chord voicings with their onset beats.
func (a *Arrangement) Voicings() ([]score.Voicing, []float64) {
	voicings := make([]score.Voicing, len(a.Chords))
	beats := make([]float64, len(a.Chords))
	for i, c := range a.Chords {
		voicings[i] = c.Voicing
		beats[i] = c.Beat
	}
	return voicings, beats
}

// Arranger turns a section list into a Score.
type Arranger struct {
	cfg       Config
	tension   tension.Config
	optimizer *voicing.Optimizer
	melody    MelodyGenerator
	harmony   HarmonyGenerator
}

func NewArranger(cfg Config, tcfg tension.Config, optimizer *voicing.Optimizer, melody MelodyGenerator, harmony HarmonyGenerator) (*Arranger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := tcfg.Validate(); err != nil {
		return nil, err
	}
	if optimizer == nil || melody == nil || harmony == nil {
		return nil, errors.New("arranger needs an optimizer and both generators")
	}
	return &Arranger{cfg: cfg.clone(), tension: tcfg, optimizer: optimizer, melody: melody, harmony: harmony}, nil
}

func (a *Arranger) Config() Config { return a.cfg.clone() }

type sectionPart struct {
	chords  []ChordEvent
	notes   map[string][]score.Note
	targets []VoiceTarget
}

// Arrange computes the target curve, plans the voices, generates every
// section concurrently and then voices the whole chord sequence in order so
// that section boundaries are checked like any other chord change.
func (a *Arranger) Arrange(ctx context.Context, req Request) (*Arrangement, error) {
	if req.Scale.IsZero() {
		return nil, fmt.Errorf("%w: scale is required", ErrInvalidRequest)
	}
	if err := req.Style.Validate(); err != nil {
		return nil, err
	}

	curve, err := tension.Target(req.Sections, a.tension)
	if err != nil {
		return nil, err
	}
	plan, err := PlanVoices(curve, a.cfg.Voices)
	if err != nil {
		return nil, err
	}

	spans := curve.Sections()
	parts := make([]sectionPart, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, span := range spans {
		g.Go(func() error {
			part, err := a.section(gctx, req, curve, plan, span)
			if err != nil {
				return fmt.Errorf("section %q: %w", span.Name, err)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Arrangement{Curve: curve, Plan: plan}
	var chords []theory.Chord
	for _, p := range parts {
		for _, ev := range p.chords {
			out.Chords = append(out.Chords, ev)
			chords = append(chords, ev.Chord)
		}
		out.Targets = append(out.Targets, p.targets...)
	}

	voicings, err := a.optimizer.Progression(chords, nil)
	if err != nil {
		var inf *voicing.InfeasibleError
		if errors.As(err, &inf) && inf.Step >= 0 && inf.Step < len(out.Chords) {
			ev := out.Chords[inf.Step]
			return nil, fmt.Errorf("section %q at beat %g: %w", ev.Section, ev.Beat, err)
		}
		return nil, err
	}
	for i := range voicings {
		out.Chords[i].Voicing = voicings[i]
	}

	out.Score = a.render(parts, out.Chords, plan)
	return out, nil
}

func (a *Arranger) section(ctx context.Context, req Request, curve *tension.Curve, plan *Plan, span tension.Span) (sectionPart, error) {
	part := sectionPart{notes: make(map[string][]score.Note)}
	if err := ctx.Err(); err != nil {
		return part, err
	}
	bounds := Range{Start: span.Start, End: span.End}

	proposals, err := a.harmony.Propose(ctx, HarmonyRequest{
		Section: span.Name,
		Start:   span.Start,
		Beats:   bounds.Beats(),
		Tension: curve.Mean(span.Start, span.End),
		Scale:   req.Scale,
		Seed:    req.Seed + uint64(span.Start),
	})
	if err != nil {
		return part, err
	}
	for i, p := range proposals {
		if p.Beat < 0 || p.Beat >= bounds.Beats() {
			continue
		}
		if p.Duration <= 0 {
			return part, fmt.Errorf("chord %d: %w: duration must be positive", i, theory.ErrInvalidChord)
		}
		chord, err := p.Resolve(req.Scale)
		if err != nil {
			return part, fmt.Errorf("chord %d: %w", i, err)
		}
		beat := span.Start + p.Beat
		part.chords = append(part.chords, ChordEvent{
			Section:  span.Name,
			Beat:     beat,
			Duration: min(p.Duration, span.End-beat),
			Chord:    chord,
			Tension:  curve.At(beat),
			Proposal: p,
		})
	}

	for vi, v := range a.cfg.Voices {
		if !v.Melodic {
			continue
		}
		for _, r := range plan.Ranges(v.Name) {
			stretch := r.Intersect(bounds)
			if stretch.Beats() <= 0 || stretch.Beats() < a.cfg.MinSpan {
				continue
			}
			level := curve.Mean(stretch.Start, stretch.End)
			target := a.cfg.TargetFor(level, req.Style, v.Role)
			notes, err := a.melody.Generate(ctx, MelodyRequest{
				Voice:   v,
				Section: span.Name,
				Start:   stretch.Start,
				Beats:   stretch.Beats(),
				Tension: level,
				Target:  target,
				Scale:   req.Scale,
				Seed:    req.Seed + uint64(stretch.Start) + uint64(vi)*1009,
			})
			if err != nil {
				return part, fmt.Errorf("voice %q: %w", v.Name, err)
			}
			part.notes[v.Name] = append(part.notes[v.Name], place(notes, stretch, v.Velocity)...)
			part.targets = append(part.targets, VoiceTarget{
				Voice: v.Name, Section: span.Name, Range: stretch, Tension: level, Target: target,
			})
		}
	}
	return part, nil
}

// place shifts relative notes into stretch, drops what starts outside it,
// trims what rings past its end and scales velocity to the voice level.
func place(notes []score.Note, stretch Range, level int) []score.Note {
	out := make([]score.Note, 0, len(notes))
	for _, n := range notes {
		n.Onset += stretch.Start
		if !stretch.Contains(n.Onset) || n.Duration <= 0 {
			continue
		}
		n.Duration = min(n.Duration, stretch.End-n.Onset)
		n.Velocity = velocity(float64(n.Velocity) * float64(level) / 75)
		out = append(out, n)
	}
	return out
}

func velocity(v float64) int {
	return min(max(int(math.Round(v)), 20), 127)
}

func (a *Arranger) render(parts []sectionPart, chords []ChordEvent, plan *Plan) score.Score {
	var s score.Score
	for _, v := range a.cfg.Voices {
		if v.Melodic {
			voice := score.Voice{Name: v.Name, Role: string(v.Role)}
			for _, p := range parts {
				voice.Notes = append(voice.Notes, p.notes[v.Name]...)
			}
			if len(voice.Notes) > 0 {
				voice.Sort()
				s.Voices = append(s.Voices, voice)
			}
			continue
		}

		pads := make([]score.Voice, a.optimizer.Config().Voices())
		for k := range pads {
			pads[k] = score.Voice{Name: fmt.Sprintf("%s_%d", v.Name, k+1), Role: string(v.Role)}
		}
		for _, ev := range chords {
			if !plan.Active(v.Name, ev.Beat) || len(ev.Voicing) != len(pads) {
				continue
			}
			vel := velocity(float64(v.Velocity-10) + 25*ev.Tension)
			for k, p := range ev.Voicing {
				pads[k].Notes = append(pads[k].Notes, score.Note{
					Pitch: p, Onset: ev.Beat, Duration: ev.Duration * 0.95, Velocity: vel,
				})
			}
		}
		for _, pv := range pads {
			if len(pv.Notes) > 0 {
				s.Voices = append(s.Voices, pv)
			}
		}
	}
	return s
}
