package tension

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSection = errors.New("invalid section")
	ErrEmptySections  = errors.New("section list is empty")
)

// Transition shapes how tension ramps into a section from the one before.
type Transition string

const (
	TransitionEased  Transition = "eased"
	TransitionLinear Transition = "linear"
	TransitionAbrupt Transition = "abrupt"
)

// ParseTransition accepts the canonical names plus "smooth" and "sudden".
// An empty string means eased.
func ParseTransition(s string) (Transition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eased", "ease", "smooth", "cosine":
		return TransitionEased, nil
	case "linear":
		return TransitionLinear, nil
	case "abrupt", "sudden", "step":
		return TransitionAbrupt, nil
	}
	return "", fmt.Errorf("%w: unknown transition %q", ErrInvalidSection, s)
}

func (t *Transition) UnmarshalText(b []byte) error {
	parsed, err := ParseTransition(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *Transition) UnmarshalYAML(node *yaml.Node) error {
	return t.UnmarshalText([]byte(node.Value))
}

// Section is one declared span of the form.
type Section struct {
	Name       string     `json:"name" yaml:"name"`
	Beats      float64    `json:"beats" yaml:"beats"`
	Tension    float64    `json:"tension" yaml:"tension"`
	Transition Transition `json:"transition,omitempty" yaml:"transition,omitempty"`
}

func (s Section) Validate() error {
	if s.Beats <= 0 {
		return fmt.Errorf("%w: %q has %.2f beats", ErrInvalidSection, s.Name, s.Beats)
	}
	if s.Tension < 0 || s.Tension > 1 {
		return fmt.Errorf("%w: %q tension %.2f outside 0..1", ErrInvalidSection, s.Name, s.Tension)
	}
	if _, err := ParseTransition(string(s.Transition)); err != nil {
		return err
	}
	return nil
}

// ValidateSections checks a full section list.
func ValidateSections(sections []Section) error {
	if len(sections) == 0 {
		return ErrEmptySections
	}
	for i, s := range sections {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

// TotalBeats sums section lengths.
func TotalBeats(sections []Section) float64 {
	total := 0.0
	for _, s := range sections {
		total += s.Beats
	}
	return total
}

// ParseSections reads a YAML section list, either bare or under a
// "sections" key.
func ParseSections(data []byte) ([]Section, error) {
	var wrapped struct {
		Sections []Section `yaml:"sections"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Sections) > 0 {
		return wrapped.Sections, ValidateSections(wrapped.Sections)
	}

	var bare []Section
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return bare, ValidateSections(bare)
}
