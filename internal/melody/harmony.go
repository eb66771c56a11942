package melody

import (
	"context"
	"math"

	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// DegreeCycle is I IV V iii vi I vii V as 0-based scale degrees.
var DegreeCycle = []int{0, 3, 4, 2, 5, 0, 6, 4}

// CyclicHarmony proposes diatonic chords from a fixed degree cycle. Chords
// get shorter as tension rises and gain a seventh above SeventhAbove.
type CyclicHarmony struct {
	Cycle        []int
	SlowBeats    float64
	FastBeats    float64
	MinBeats     float64
	SeventhAbove float64
}

func NewCyclicHarmony() *CyclicHarmony {
	return &CyclicHarmony{
		Cycle:        DegreeCycle,
		SlowBeats:    8,
		FastBeats:    4,
		MinBeats:     2,
		SeventhAbove: 0.5,
	}
}

// ChordBeats is the chord length at a tension, in whole beats.
func (h *CyclicHarmony) ChordBeats(tension float64) float64 {
	t := min(max(tension, 0), 1)
	return max(h.MinBeats, math.Floor(h.SlowBeats+(h.FastBeats-h.SlowBeats)*t))
}

// Propose implements orchestrator.HarmonyGenerator. The cycle position is
// taken from the section start so consecutive sections continue it.
func (h *CyclicHarmony) Propose(ctx context.Context, req orchestrator.HarmonyRequest) ([]theory.ChordProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(h.Cycle) == 0 || req.Beats <= 0 {
		return nil, nil
	}
	length := h.ChordBeats(req.Tension)
	seventh := req.Tension > h.SeventhAbove
	idx := int(req.Start / length)

	var out []theory.ChordProposal
	for beat := 0.0; beat < req.Beats; beat += length {
		degree := h.Cycle[idx%len(h.Cycle)]
		out = append(out, theory.ChordProposal{
			Degree:   &degree,
			Seventh:  seventh,
			Beat:     beat,
			Duration: min(length, req.Beats-beat),
		})
		idx++
	}
	return out, nil
}
