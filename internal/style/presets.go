package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/magda-harmony/pkg/embedded"
)

// Library is a read-only set of named style targets.
type Library struct {
	targets map[string]Target
}

type libraryFile struct {
	Styles map[string]Target `yaml:"styles"`
}

// ParseLibrary decodes a `styles:` YAML document and validates every entry.
func ParseLibrary(data []byte) (*Library, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse style presets: %w", err)
	}
	if len(f.Styles) == 0 {
		return nil, fmt.Errorf("%w: no styles defined", ErrInvalidTarget)
	}
	lib := &Library{targets: make(map[string]Target, len(f.Styles))}
	for name, t := range f.Styles {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("style %q: %w", name, err)
		}
		lib.targets[strings.ToLower(name)] = t
	}
	return lib, nil
}

// Get looks a target up by case-insensitive name.
func (l *Library) Get(name string) (Target, bool) {
	t, ok := l.targets[strings.ToLower(name)]
	return t, ok
}

func (l *Library) Names() []string {
	names := make([]string, 0, len(l.targets))
	for n := range l.targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of every target keyed by name.
func (l *Library) All() map[string]Target {
	out := make(map[string]Target, len(l.targets))
	for n, t := range l.targets {
		out[n] = t
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the embedded presets (bach, chopin, floyd). They are parsed
// once and shared.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := ParseLibrary(embedded.StylesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded style presets: %v", err))
		}
		defaultLib = lib
	})
	return defaultLib
}

// Preset is Default().Get(name).
func Preset(name string) (Target, bool) {
	return Default().Get(name)
}
