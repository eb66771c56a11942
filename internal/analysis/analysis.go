package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// Input is a finished passage plus optional targets to compare against.
// When Voicings is set the counterpoint rules run over the voicing sequence
// placed at Beats; otherwise they run over the aligned voices of Score.
type Input struct {
	Score         score.Score
	Voicings      []score.Voicing
	Beats         []float64
	Target        *tension.Curve
	EntropyTarget *entropy.Target
}

// Report is everything measured about one passage. Distances are nil when
// no target was supplied; no pass/fail threshold is applied.
type Report struct {
	Counterpoint    counterpoint.Report `json:"counterpoint"`
	Tension         tension.Summary     `json:"tension"`
	Curve           []tension.Sample    `json:"curve"`
	TensionDistance *float64            `json:"tension_distance,omitempty"`
	Entropy         entropy.Profile     `json:"entropy"`
	EntropyDistance *float64            `json:"entropy_distance,omitempty"`
	Movement        *voicing.Movement   `json:"movement,omitempty"`

	measured *tension.Curve
}

// Measured returns the measured tension curve.
func (r *Report) Measured() *tension.Curve { return r.measured }

// Analyzer bundles the read-only validators.
type Analyzer struct {
	validator *counterpoint.Validator
	tension   tension.Config
	entropy   entropy.Config
}

func NewAnalyzer(cp counterpoint.Config, tc tension.Config, ec entropy.Config) (*Analyzer, error) {
	v, err := counterpoint.NewValidator(cp)
	if err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{validator: v, tension: tc, entropy: ec}, nil
}

// Validator exposes the counterpoint validator for callers that only need
// findings.
func (a *Analyzer) Validator() *counterpoint.Validator { return a.validator }

// Analyze runs counterpoint validation, entropy profiling and tension
// measurement concurrently. None of them mutate the input.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Report, error) {
	if len(in.Voicings) > 0 && len(in.Beats) > 0 && len(in.Beats) != len(in.Voicings) {
		return nil, fmt.Errorf("got %d beats for %d voicings", len(in.Beats), len(in.Voicings))
	}

	report := &Report{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if len(in.Voicings) > 0 {
			report.Counterpoint = a.validator.ValidateVoicings(in.Voicings, in.Beats)
		} else {
			report.Counterpoint = a.validator.ValidateScore(in.Score)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		profile, err := entropy.Analyze(in.Score, a.entropy)
		if err != nil {
			return fmt.Errorf("entropy: %w", err)
		}
		report.Entropy = profile
		return gctx.Err()
	})

	g.Go(func() error {
		curve, err := tension.Measure(in.Score, a.tension)
		if err != nil {
			return fmt.Errorf("tension: %w", err)
		}
		report.measured = curve
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	curve := report.measured
	if in.Target != nil {
		curve = curve.WithSections(spanSections(in.Target))
		d := tension.Distance(curve, in.Target)
		report.TensionDistance = &d
		report.measured = curve
	}
	report.Tension = curve.Summary()
	report.Curve = curve.Samples()

	if in.EntropyTarget != nil {
		d := entropy.Distance(report.Entropy, *in.EntropyTarget)
		report.EntropyDistance = &d
	}
	if len(in.Voicings) > 1 {
		m := voicing.Stats(in.Voicings)
		report.Movement = &m
	}
	return report, nil
}

// spanSections recovers a section list from a target curve so the measured
// curve can be summarized per section.
func spanSections(c *tension.Curve) []tension.Section {
	spans := c.Sections()
	out := make([]tension.Section, len(spans))
	for i, sp := range spans {
		out[i] = tension.Section{Name: sp.Name, Beats: sp.End - sp.Start, Tension: sp.Tension}
	}
	return out
}
