package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// ErrInconsistentEngine is returned when two component sections disagree on
// a rule they both enforce.
var ErrInconsistentEngine = errors.New("inconsistent engine config")

// Engine is the full engine configuration, fixed at startup. Components copy
// their section when they are constructed.
type Engine struct {
	Voicing      voicing.Config      `yaml:"voicing"`
	Counterpoint counterpoint.Config `yaml:"counterpoint"`
	Tension      tension.Config      `yaml:"tension"`
	Entropy      entropy.Config      `yaml:"entropy"`
	Orchestrator orchestrator.Config `yaml:"-"`
	Styles       *style.Library      `yaml:"-"`
}

// DefaultEngine returns every component's defaults and the embedded presets.
func DefaultEngine() Engine {
	return Engine{
		Voicing:      voicing.DefaultConfig(),
		Counterpoint: counterpoint.DefaultConfig(),
		Tension:      tension.DefaultConfig(),
		Entropy:      entropy.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
		Styles:       style.Default(),
	}
}

func (e Engine) Validate() error {
	if err := e.Voicing.Validate(); err != nil {
		return fmt.Errorf("voicing: %w", err)
	}
	if err := e.Counterpoint.Validate(); err != nil {
		return fmt.Errorf("counterpoint: %w", err)
	}
	if err := e.Tension.Validate(); err != nil {
		return fmt.Errorf("tension: %w", err)
	}
	if err := e.Entropy.Validate(); err != nil {
		return fmt.Errorf("entropy: %w", err)
	}
	if err := e.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	if e.Styles == nil {
		return fmt.Errorf("%w: no style library", style.ErrInvalidTarget)
	}

	// Voicings the optimizer accepts must pass the validator's direct-perfect
	// rule: outer pair only, with a leap limit no looser than the validator's.
	if e.Voicing.LeapThreshold > e.Counterpoint.StepLimit {
		return fmt.Errorf("%w: voicing leap_threshold %d exceeds counterpoint step_limit %d",
			ErrInconsistentEngine, e.Voicing.LeapThreshold, e.Counterpoint.StepLimit)
	}
	if !e.Counterpoint.OuterDirectOnly {
		return fmt.Errorf("%w: counterpoint outer_direct_only must be set",
			ErrInconsistentEngine)
	}
	return nil
}

// LoadEngine builds the engine configuration: defaults, then the presets
// file when one is set, then the worker override.
func LoadEngine(cfg *Config) (Engine, error) {
	e := DefaultEngine()

	if cfg.EnginePresetsFile != "" {
		data, err := os.ReadFile(cfg.EnginePresetsFile)
		if err != nil {
			return Engine{}, fmt.Errorf("failed to read presets file: %w", err)
		}
		if err := e.ApplyPresets(data); err != nil {
			return Engine{}, fmt.Errorf("%s: %w", cfg.EnginePresetsFile, err)
		}
	}

	if cfg.EngineWorkers > 0 {
		e.Voicing.Workers = cfg.EngineWorkers
		e.Orchestrator.Workers = cfg.EngineWorkers
	}

	if err := e.Validate(); err != nil {
		return Engine{}, err
	}
	return e, nil
}

// ApplyPresets overlays a presets document. Component sections replace only
// the keys they name; a styles block replaces the style library and a voices
// block replaces the palette.
func (e *Engine) ApplyPresets(data []byte) error {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}

	sections := map[string]interface{}{
		"voicing":      &e.Voicing,
		"counterpoint": &e.Counterpoint,
		"tension":      &e.Tension,
		"entropy":      &e.Entropy,
	}
	for key, target := range sections {
		node, ok := doc[key]
		if !ok {
			continue
		}
		if err := node.Decode(target); err != nil {
			return fmt.Errorf("failed to parse %s section: %w", key, err)
		}
	}

	if _, ok := doc["styles"]; ok {
		lib, err := style.ParseLibrary(data)
		if err != nil {
			return err
		}
		e.Styles = lib
	}
	if _, ok := doc["voices"]; ok {
		palette, err := orchestrator.ParsePalette(data)
		if err != nil {
			return err
		}
		e.Orchestrator = palette
	}
	return nil
}
