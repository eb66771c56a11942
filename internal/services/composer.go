package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-harmony/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/melody"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// DefaultStyle is used when an arrangement names no style
const DefaultStyle = "bach"

// defaultChordBeats is the length of a proposal that gives none
const defaultChordBeats = 4.0

var ErrUnknownStyle = errors.New("unknown style")

// Composer is the engine facade used by the HTTP handlers. It owns one
// optimizer, validator and arranger built from the startup configuration.
type Composer struct {
	engine     config.Engine
	optimizer  *voicing.Optimizer
	analyzer   *analysis.Analyzer
	arranger   *orchestrator.Arranger
	sentry     *metrics.SentryMetrics
	cloudwatch *metrics.Client
	engineKey  string
}

func NewComposer(engine config.Engine, sentryMetrics *metrics.SentryMetrics, cloudwatch *metrics.Client) (*Composer, error) {
	if err := engine.Validate(); err != nil {
		return nil, err
	}
	optimizer, err := voicing.New(engine.Voicing)
	if err != nil {
		return nil, err
	}
	analyzer, err := analysis.NewAnalyzer(engine.Counterpoint, engine.Tension, engine.Entropy)
	if err != nil {
		return nil, err
	}
	arranger, err := orchestrator.NewArranger(engine.Orchestrator, engine.Tension, optimizer,
		melody.NewWalker(), melody.NewCyclicHarmony())
	if err != nil {
		return nil, err
	}
	engineKey, err := EngineFingerprint(engine)
	if err != nil {
		return nil, err
	}
	return &Composer{
		engine:     engine,
		optimizer:  optimizer,
		analyzer:   analyzer,
		arranger:   arranger,
		sentry:     sentryMetrics,
		cloudwatch: cloudwatch,
		engineKey:  engineKey,
	}, nil
}

// RequestFingerprint keys req together with the engine configuration that
// renders it, so cached arrangements miss after the presets change.
func (c *Composer) RequestFingerprint(req models.ArrangementRequest) (string, error) {
	return Fingerprint(struct {
		Engine  string                    `json:"engine"`
		Request models.ArrangementRequest `json:"request"`
	}{c.engineKey, req})
}

// observe runs one engine operation inside a span and logs its outcome
func (c *Composer) observe(ctx context.Context, operation string, fields logger.Fields, fn func(ctx context.Context) error) error {
	span := c.sentry.StartEngineSpan(ctx, operation)
	start := time.Now()
	err := fn(span.Context())
	duration := time.Since(start)

	c.sentry.FinishEngineSpan(span, err, fields)

	var inf *voicing.InfeasibleError
	if errors.As(err, &inf) {
		c.sentry.RecordInfeasible(ctx, string(inf.Constraint), inf.Step)
		c.cloudwatch.RecordInfeasible(string(inf.Constraint))
	}
	logger.LogEngineOperation(operation, duration, err, fields)
	return err
}

func (c *Composer) recordFindings(ctx context.Context, report counterpoint.Report) {
	errs, warns := len(report.Errors()), len(report.Warnings())
	c.sentry.RecordFindings(ctx, errs, warns)
	c.cloudwatch.RecordFindings(errs, warns)
}

// VoicedChord is one chord of a voiced progression
type VoicedChord struct {
	Beat     float64       `json:"beat"`
	Duration float64       `json:"duration"`
	Chord    theory.Chord  `json:"chord"`
	Voicing  score.Voicing `json:"voicing"`
}

// VoicingResult is a voiced progression with its validation. Texture holds
// the accompaniment figure when one was requested.
type VoicingResult struct {
	Chords   []VoicedChord       `json:"chords"`
	Report   counterpoint.Report `json:"report"`
	Movement voicing.Movement    `json:"movement"`
	Texture  []score.Note        `json:"texture,omitempty"`
}

// Voice resolves chord proposals and voices them as one progression
func (c *Composer) Voice(ctx context.Context, req models.VoicingRequest) (*VoicingResult, error) {
	var result *VoicingResult
	err := c.observe(ctx, "voice", logger.Fields{"chords": len(req.Chords)}, func(ctx context.Context) error {
		var scale theory.Scale
		if req.Scale != nil {
			s, err := req.Scale.Resolve()
			if err != nil {
				return err
			}
			scale = s
		}

		chords := make([]theory.Chord, len(req.Chords))
		for i, p := range req.Chords {
			chord, err := p.Resolve(scale)
			if err != nil {
				return fmt.Errorf("chord %d: %w", i, err)
			}
			chords[i] = chord
		}
		beats, durations := timeline(req.Chords)

		var prev score.Voicing
		if len(req.Previous) > 0 {
			prev = score.Voicing(req.Previous)
		}
		voicings, err := c.optimizer.Progression(chords, prev)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		result = &VoicingResult{
			Chords:   make([]VoicedChord, len(chords)),
			Report:   c.analyzer.Validator().ValidateVoicings(voicings, beats),
			Movement: voicing.Stats(voicings),
		}
		for i := range chords {
			result.Chords[i] = VoicedChord{Beat: beats[i], Duration: durations[i], Chord: chords[i], Voicing: voicings[i]}
		}
		if req.Pattern != "" {
			texture, err := figurate(req.Pattern, result.Chords)
			if err != nil {
				return err
			}
			result.Texture = texture
		}
		c.recordFindings(ctx, result.Report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// timeline places proposals that carry no explicit beat directly after the
// previous chord.
func timeline(proposals []theory.ChordProposal) (beats, durations []float64) {
	beats = make([]float64, len(proposals))
	durations = make([]float64, len(proposals))
	for i, p := range proposals {
		durations[i] = p.Duration
		if durations[i] <= 0 {
			durations[i] = defaultChordBeats
		}
		beats[i] = p.Beat
		if i > 0 && p.Beat <= beats[i-1] {
			beats[i] = beats[i-1] + durations[i-1]
		}
	}
	return beats, durations
}

// analyzerFor returns the shared analyzer, or one measuring harmonic tension
// against another tonic.
func (c *Composer) analyzerFor(tonic int) (*analysis.Analyzer, error) {
	if tonic == c.engine.Tension.Tonic {
		return c.analyzer, nil
	}
	tc := c.engine.Tension
	tc.Tonic = tonic
	return analysis.NewAnalyzer(c.engine.Counterpoint, tc, c.engine.Entropy)
}

// Validate runs the full analysis over a submitted passage
func (c *Composer) Validate(ctx context.Context, req models.ScoreRequest) (*analysis.Report, error) {
	var report *analysis.Report
	err := c.observe(ctx, "validate", logger.Fields{"voices": len(req.Tracks)}, func(ctx context.Context) error {
		tonic, err := req.TonicPitchClass()
		if err != nil {
			return err
		}
		analyzer, err := c.analyzerFor(tonic)
		if err != nil {
			return err
		}

		in := analysis.Input{Score: req.Score(), EntropyTarget: req.EntropyTarget}
		if req.Target != nil {
			target, err := c.target(*req.Target)
			if err != nil {
				return err
			}
			in.Target = target
		}

		report, err = analyzer.Analyze(ctx, in)
		if err != nil {
			return err
		}
		c.recordFindings(ctx, report.Counterpoint)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CurveResult is a tension curve in wire form
type CurveResult struct {
	Summary         tension.Summary  `json:"summary"`
	Curve           []tension.Sample `json:"curve"`
	Distance        *float64         `json:"distance,omitempty"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
}

// Measure measures the tension of a passage, and its distance to a target
// when one is given.
func (c *Composer) Measure(ctx context.Context, req models.ScoreRequest) (*CurveResult, error) {
	var result *CurveResult
	err := c.observe(ctx, "tension.measure", logger.Fields{"voices": len(req.Tracks)}, func(ctx context.Context) error {
		tonic, err := req.TonicPitchClass()
		if err != nil {
			return err
		}
		tc := c.engine.Tension
		tc.Tonic = tonic

		curve, err := tension.Measure(req.Score(), tc)
		if err != nil {
			return err
		}
		var distance *float64
		if req.Target != nil {
			sections, err := req.Target.Resolve()
			if err != nil {
				return err
			}
			target, err := tension.Target(sections, c.engine.Tension)
			if err != nil {
				return err
			}
			curve = curve.WithSections(sections)
			d := tension.Distance(curve, target)
			distance = &d
		}
		result = &CurveResult{Summary: curve.Summary(), Curve: curve.Samples(), Distance: distance}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Composer) target(form models.FormSpec) (*tension.Curve, error) {
	sections, err := form.Resolve()
	if err != nil {
		return nil, err
	}
	return tension.Target(sections, c.engine.Tension)
}

// Target builds the prescribed curve for a form
func (c *Composer) Target(ctx context.Context, form models.FormSpec) (*CurveResult, error) {
	var result *CurveResult
	err := c.observe(ctx, "tension.target", logger.Fields{"form": form.Form, "sections": len(form.Sections)}, func(ctx context.Context) error {
		curve, err := c.target(form)
		if err != nil {
			return err
		}
		result = &CurveResult{
			Summary:         curve.Summary(),
			Curve:           curve.Samples(),
			DurationSeconds: curve.DurationSeconds(form.BPM),
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EntropyResult is an entropy profile and its distance to the target
type EntropyResult struct {
	Profile  entropy.Profile `json:"profile"`
	Target   entropy.Target  `json:"target"`
	Distance float64         `json:"distance"`
}

// Entropy profiles a passage. Without a target, transition entropy is
// compared with the middle of the sweet spot.
func (c *Composer) Entropy(ctx context.Context, req models.ScoreRequest) (*EntropyResult, error) {
	var result *EntropyResult
	err := c.observe(ctx, "entropy", logger.Fields{"voices": len(req.Tracks)}, func(ctx context.Context) error {
		profile, err := entropy.Analyze(req.Score(), c.engine.Entropy)
		if err != nil {
			return err
		}
		target := entropy.SweetSpotTarget(c.engine.Entropy)
		if req.EntropyTarget != nil {
			target = *req.EntropyTarget
		}
		result = &EntropyResult{Profile: profile, Target: target, Distance: entropy.Distance(profile, target)}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ArrangementResult is an arrangement with its analysis and DAW export
type ArrangementResult struct {
	Style       string                    `json:"style"`
	Arrangement *orchestrator.Arrangement `json:"arrangement"`
	Entries     []orchestrator.Entry      `json:"entries"`
	Target      []tension.Sample          `json:"target"`
	Report      *analysis.Report          `json:"report"`
	Export      models.Export             `json:"export"`
}

func (c *Composer) resolveStyle(req models.ArrangementRequest) (string, style.Target, error) {
	if req.StyleTarget != nil {
		if err := req.StyleTarget.Validate(); err != nil {
			return "", style.Target{}, err
		}
		return "custom", *req.StyleTarget, nil
	}
	name := req.Style
	if name == "" {
		name = DefaultStyle
	}
	t, ok := c.engine.Styles.Get(name)
	if !ok {
		return "", style.Target{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownStyle, name, c.engine.Styles.Names())
	}
	return name, t, nil
}

// Arrange plans, generates and voices a full arrangement, then analyzes it
// against its own target curve.
func (c *Composer) Arrange(ctx context.Context, req models.ArrangementRequest) (*ArrangementResult, error) {
	var result *ArrangementResult
	fields := logger.Fields{"style": req.Style, "form": req.Form, "seed": req.Seed}
	start := time.Now()

	err := c.observe(ctx, "arrange", fields, func(ctx context.Context) error {
		sections, err := req.FormSpec.Resolve()
		if err != nil {
			return err
		}
		scale, err := req.Scale.Resolve()
		if err != nil {
			return err
		}
		styleName, target, err := c.resolveStyle(req)
		if err != nil {
			return err
		}

		arranger, err := c.arrangerFor(req.Subject)
		if err != nil {
			return err
		}
		arr, err := arranger.Arrange(ctx, orchestrator.Request{
			Sections: sections,
			Style:    target,
			Scale:    scale,
			Seed:     req.Seed,
		})
		if err != nil {
			return err
		}

		analyzer, err := c.analyzerFor(scale.Tonic())
		if err != nil {
			return err
		}
		voicings, beats := arr.Voicings()
		sweet := entropy.SweetSpotTarget(c.engine.Entropy)
		report, err := analyzer.Analyze(ctx, analysis.Input{
			Score:         arr.Score,
			Voicings:      voicings,
			Beats:         beats,
			Target:        arr.Curve,
			EntropyTarget: &sweet,
		})
		if err != nil {
			return err
		}
		c.recordFindings(ctx, report.Counterpoint)

		result = &ArrangementResult{
			Style:       styleName,
			Arrangement: arr,
			Entries:     arr.Plan.Entries(),
			Target:      arr.Curve.Samples(),
			Report:      report,
			Export:      c.export(arr),
		}
		fields["sections"] = len(sections)
		fields["notes"] = arr.Score.NoteCount()
		return nil
	})

	sections, _ := fields["sections"].(int)
	notes, _ := fields["notes"].(int)
	c.cloudwatch.RecordArrangement(time.Since(start), sections, notes, err == nil)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Composer) export(arr *orchestrator.Arrangement) models.Export {
	programs := make(map[string]int, len(c.engine.Orchestrator.Voices))
	for _, v := range c.engine.Orchestrator.Voices {
		programs[string(v.Role)] = v.Program
	}
	out := models.ExportScore(arr.Score, func(v score.Voice) int { return programs[v.Role] })
	for _, ev := range arr.Chords {
		out.Chords = append(out.Chords, models.ChordEvent{
			ChordSymbol:   ev.Chord.String(),
			StartBeats:    ev.Beat,
			DurationBeats: ev.Duration,
		})
	}
	return out
}

// Presets lists everything a client can name in a request
type Presets struct {
	Styles   map[string]style.Target      `json:"styles"`
	Forms    map[string][]tension.Section `json:"forms"`
	Scales   []string                     `json:"scales"`
	Palette  []orchestrator.VoiceConfig   `json:"palette"`
	Fields   []string                     `json:"style_fields"`
	Patterns []melody.Pattern             `json:"patterns"`
}

func (c *Composer) Presets() Presets {
	forms := make(map[string][]tension.Section)
	for _, name := range tension.FormNames() {
		sections, _ := tension.Form(name)
		forms[name] = sections
	}
	return Presets{
		Styles:   c.engine.Styles.All(),
		Forms:    forms,
		Scales:   theory.TemplateNames(),
		Palette:  append([]orchestrator.VoiceConfig(nil), c.engine.Orchestrator.Voices...),
		Fields:   style.FieldNames(),
		Patterns: melody.Patterns(),
	}
}
