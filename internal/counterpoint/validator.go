package counterpoint

import (
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
)

// Validator runs an ordered rule list over a finished passage. It never
// modifies its input and is safe for concurrent use.
type Validator struct {
	cfg   Config
	rules []Rule
}

// NewValidator builds a validator with the default rules followed by extra.
func NewValidator(cfg Config, extra ...Rule) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.StrongBeats = append([]float64(nil), cfg.StrongBeats...)
	rules := append(DefaultRules(), extra...)
	return &Validator{cfg: cfg, rules: rules}, nil
}

// Rules lists the rule names in evaluation order.
func (v *Validator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// Validate checks aligned steps.
func (v *Validator) Validate(steps []score.Step) Report {
	a := newAnalysis(steps, v.cfg)
	report := Report{Steps: len(steps)}
	for _, r := range v.rules {
		report.Findings = append(report.Findings, r.Check(a, v.cfg)...)
	}
	report.sort()
	return report
}

// ValidateVoicings checks a voicing sequence placed at beats.
func (v *Validator) ValidateVoicings(voicings []score.Voicing, beats []float64) Report {
	return v.Validate(score.FromVoicings(voicings, beats))
}

// ValidateScore aligns independent voices by onset and checks the result.
func (v *Validator) ValidateScore(s score.Score) Report {
	return v.Validate(s.Steps())
}
