package orchestrator

import (
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/style"
)

// TargetFor maps a tension value onto base using the role's profile from the
// default palette.
func TargetFor(tension float64, base style.Target, role Role) style.Target {
	return DefaultConfig().TargetFor(tension, base, role)
}

// TargetFor derives the style target for one role at one tension. Each
// profiled field is interpolated between its low and high tension values;
// fields without a span keep the base value. A role with Avoid set is placed
// entirely below the avoided role's register at the same tension.
func (c Config) TargetFor(tension float64, base style.Target, role Role) style.Target {
	t := min(max(tension, 0), 1)
	out := c.modulate(t, base, role)

	p := c.Profiles[role]
	if p.Avoid != "" && p.Avoid != role {
		other := c.modulate(t, base, p.Avoid)
		otherLo, _ := other.Bounds()
		top := otherLo - max(p.Gap, 1)
		out.PitchCenter = top - out.PitchRange/2
	}
	return out.Clamp()
}

func (c Config) modulate(t float64, base style.Target, role Role) style.Target {
	out := base
	p, ok := c.Profiles[role]
	if !ok {
		return out.Clamp()
	}
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cur, ok := base.Field(name)
		if !ok {
			continue
		}
		out, _ = out.WithField(name, p.Fields[name].Apply(cur, t))
	}
	return out.Clamp()
}
