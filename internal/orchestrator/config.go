package orchestrator

import (
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/magda-harmony/pkg/embedded"
)

var ErrInvalidVoiceConfig = errors.New("invalid voice config")

// Role is the musical function of a voice.
type Role string

const (
	RoleLead    Role = "lead"
	RoleCounter Role = "counter"
	RoleBass    Role = "bass"
	RolePad     Role = "pad"
)

// order breaks ties between entries starting on the same beat.
func (r Role) order() int {
	switch r {
	case RoleLead:
		return 0
	case RoleBass:
		return 1
	case RolePad:
		return 2
	case RoleCounter:
		return 3
	}
	return 4
}

func (r Role) valid() bool { return r.order() < 4 }

// VoiceConfig is one entry of the palette. A voice enters when tension
// reaches Enter and leaves when it falls to Exit or below.
type VoiceConfig struct {
	Name     string  `json:"name" yaml:"name"`
	Role     Role    `json:"role" yaml:"role"`
	Program  int     `json:"program" yaml:"program"`
	Enter    float64 `json:"enter" yaml:"enter"`
	Exit     float64 `json:"exit" yaml:"exit"`
	AlwaysOn bool    `json:"always_on" yaml:"always_on"`
	Velocity int     `json:"velocity" yaml:"velocity"`
	Melodic  bool    `json:"melodic" yaml:"melodic"`
}

func (v VoiceConfig) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: voice needs a name", ErrInvalidVoiceConfig)
	}
	if !v.Role.valid() {
		return fmt.Errorf("%w: voice %q has unknown role %q", ErrInvalidVoiceConfig, v.Name, v.Role)
	}
	if v.Program < 0 || v.Program > 127 {
		return fmt.Errorf("%w: voice %q program %d outside 0..127", ErrInvalidVoiceConfig, v.Name, v.Program)
	}
	if v.Velocity < 1 || v.Velocity > 127 {
		return fmt.Errorf("%w: voice %q velocity %d outside 1..127", ErrInvalidVoiceConfig, v.Name, v.Velocity)
	}
	if v.AlwaysOn {
		return nil
	}
	if v.Enter < 0 || v.Enter > 1 || v.Exit < 0 || v.Exit > 1 {
		return fmt.Errorf("%w: voice %q thresholds outside 0..1", ErrInvalidVoiceConfig, v.Name)
	}
	if v.Exit >= v.Enter {
		return fmt.Errorf("%w: voice %q exit %.2f must be below enter %.2f", ErrInvalidVoiceConfig, v.Name, v.Exit, v.Enter)
	}
	return nil
}

// Mode selects how a Span combines with the base style value.
type Mode string

const (
	ModeScale    Mode = "scale"
	ModeOffset   Mode = "offset"
	ModeAbsolute Mode = "absolute"
)

// Span interpolates from Low at tension 0 to High at tension 1 and applies
// the result to a base value according to Mode. Min and Max clamp the
// outcome when set.
type Span struct {
	Mode Mode     `json:"mode" yaml:"mode"`
	Low  float64  `json:"low" yaml:"low"`
	High float64  `json:"high" yaml:"high"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (s Span) Apply(base, tension float64) float64 {
	v := s.Low + (s.High-s.Low)*tension
	switch s.Mode {
	case ModeScale:
		v *= base
	case ModeOffset:
		v += base
	}
	if s.Min != nil {
		v = max(v, *s.Min)
	}
	if s.Max != nil {
		v = min(v, *s.Max)
	}
	return v
}

// RoleProfile modulates style fields, keyed by their serialized names. Avoid
// names a role whose register this one is placed below, Gap semitones apart.
type RoleProfile struct {
	Fields map[string]Span `json:"fields" yaml:"fields"`
	Avoid  Role            `json:"avoid,omitempty" yaml:"avoid,omitempty"`
	Gap    int             `json:"gap,omitempty" yaml:"gap,omitempty"`
}

// Config is the orchestrator's immutable configuration.
//
//   - Voices: the palette, in render order.
//   - Profiles: tension modulation per role.
//   - Workers: sections generated concurrently (>= 1).
//   - MinSpan: shortest active stretch, in beats, worth a melodic phrase.
type Config struct {
	Voices   []VoiceConfig        `json:"voices" yaml:"voices"`
	Profiles map[Role]RoleProfile `json:"profiles" yaml:"profiles"`
	Workers  int                  `json:"workers" yaml:"workers"`
	MinSpan  float64              `json:"min_span" yaml:"min_span"`
}

func (c Config) Validate() error {
	if len(c.Voices) == 0 {
		return fmt.Errorf("%w: palette is empty", ErrInvalidVoiceConfig)
	}
	seen := make(map[string]bool, len(c.Voices))
	for _, v := range c.Voices {
		if err := v.Validate(); err != nil {
			return err
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: duplicate voice %q", ErrInvalidVoiceConfig, v.Name)
		}
		seen[v.Name] = true
	}
	for role, p := range c.Profiles {
		if !role.valid() {
			return fmt.Errorf("%w: profile for unknown role %q", ErrInvalidVoiceConfig, role)
		}
		if p.Avoid != "" && (!p.Avoid.valid() || p.Avoid == role) {
			return fmt.Errorf("%w: role %q cannot avoid %q", ErrInvalidVoiceConfig, role, p.Avoid)
		}
		for name, s := range p.Fields {
			switch s.Mode {
			case ModeScale, ModeOffset, ModeAbsolute:
			default:
				return fmt.Errorf("%w: %s.%s has unknown mode %q", ErrInvalidVoiceConfig, role, name, s.Mode)
			}
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", ErrInvalidVoiceConfig)
	}
	if c.MinSpan < 0 {
		return fmt.Errorf("%w: min span is negative", ErrInvalidVoiceConfig)
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.Voices = append([]VoiceConfig(nil), c.Voices...)
	out.Profiles = make(map[Role]RoleProfile, len(c.Profiles))
	for role, p := range c.Profiles {
		fields := make(map[string]Span, len(p.Fields))
		for k, s := range p.Fields {
			fields[k] = s
		}
		p.Fields = fields
		out.Profiles[role] = p
	}
	return out
}

// Voice finds a palette entry by name.
func (c Config) Voice(name string) (VoiceConfig, bool) {
	for _, v := range c.Voices {
		if v.Name == name {
			return v, true
		}
	}
	return VoiceConfig{}, false
}

// ParsePalette decodes a palette YAML document (voices and profiles) on top
// of the default worker settings.
func ParsePalette(data []byte) (Config, error) {
	cfg := Config{Workers: 4, MinSpan: 2}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse palette: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	paletteOnce sync.Once
	palette     Config
)

// DefaultConfig returns the embedded palette: lead always on, bass 0.18/0.10,
// pad 0.28/0.15, counter 0.50/0.35.
func DefaultConfig() Config {
	paletteOnce.Do(func() {
		cfg, err := ParsePalette(embedded.PaletteYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded palette: %v", err))
		}
		palette = cfg
	})
	return palette.clone()
}
