package orchestrator_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/melody"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func correlation(a, b []float64) float64 {
	n := min(len(a), len(b))
	var ma, mb float64
	for i := 0; i < n; i++ {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(n)
	mb /= float64(n)
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		cov += (a[i] - ma) * (b[i] - mb)
		va += (a[i] - ma) * (a[i] - ma)
		vb += (b[i] - mb) * (b[i] - mb)
	}
	return cov / math.Sqrt(va*vb)
}

func TestMeasuredArrangementReproducesTargetShape(t *testing.T) {
	sections := []tension.Section{
		{Name: "Intro", Beats: 40, Tension: 0.10, Transition: tension.TransitionEased},
		{Name: "Build", Beats: 48, Tension: 0.55, Transition: tension.TransitionEased},
		{Name: "Climax", Beats: 48, Tension: 0.85, Transition: tension.TransitionAbrupt},
	}
	bach, ok := style.Preset("bach")
	require.True(t, ok)

	opt, err := voicing.New(voicing.DefaultConfig())
	require.NoError(t, err)
	tcfg := tension.DefaultConfig()
	a, err := orchestrator.NewArranger(orchestrator.DefaultConfig(), tcfg, opt, melody.NewWalker(), melody.NewCyclicHarmony())
	require.NoError(t, err)

	out, err := a.Arrange(context.Background(), orchestrator.Request{
		Sections: sections,
		Style:    bach,
		Scale:    theory.MustScale(2, "dorian"),
		Seed:     7,
	})
	require.NoError(t, err)

	measured, err := tension.Measure(out.Score, tcfg)
	require.NoError(t, err)

	resectioned := tension.Resection(measured, sections)
	require.Len(t, resectioned, len(sections))
	for i := 1; i < len(resectioned); i++ {
		assert.Less(t, resectioned[i-1].Tension, resectioned[i].Tension,
			"%s should measure below %s", resectioned[i-1].Name, resectioned[i].Name)
		assert.Equal(t, sections[i].Transition, resectioned[i].Transition)
	}

	again, err := tension.Target(resectioned, tcfg)
	require.NoError(t, err)
	assert.Equal(t, out.Curve.Len(), again.Len())
	assert.Greater(t, correlation(out.Curve.Values(), again.Values()), 0.8)
}
