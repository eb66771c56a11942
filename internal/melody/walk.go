package melody

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/score"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Walker generates melodies as a constrained random walk over a scale, shaped
// by a style target. Output depends only on the request and its seed.
type Walker struct{}

func NewWalker() *Walker { return &Walker{} }

// Generate implements orchestrator.MelodyGenerator.
func (w *Walker) Generate(ctx context.Context, req orchestrator.MelodyRequest) ([]score.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	return Walk(req.Scale, req.Target, req.Beats, req.Seed), nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Walk renders beats of melody starting at onset 0.
func Walk(scale theory.Scale, t style.Target, beats float64, seed uint64) []score.Note {
	if beats <= 0 {
		return nil
	}
	rng := newRand(seed)
	lo, hi := t.Bounds()

	durations := rhythm(t, beats, rng)
	pitches := walkPitches(scale, t, len(durations), lo, hi, rng)
	velocities := phrase(t, durations, rng)
	if t.Repetition > 0.35 {
		pitches = repeatMotif(pitches, t.Repetition, scale, lo, hi, rng)
	}

	notes := make([]score.Note, len(durations))
	onset := 0.0
	for i, d := range durations {
		notes[i] = score.Note{Pitch: pitches[i], Onset: onset, Duration: d, Velocity: velocities[i]}
		onset += d
	}
	return notes
}

// rhythm builds a duration sequence whose mean follows the density and whose
// spread follows the duration CV.
func rhythm(t style.Target, beats float64, rng *rand.Rand) []float64 {
	base := 1 / t.Density
	kinds := max(2, t.RhythmVariety)

	// near-uniform motor rhythm
	if t.DurationCV < 0.15 {
		var out []float64
		remaining := beats
		for remaining > base*0.3 {
			d := min(remaining, base*uniform(rng, 0.92, 1.08))
			out = append(out, d)
			remaining -= d
		}
		return out
	}

	ratio := min(math.Pow(2, t.DurationCV*3), 16)
	shortest := max(0.125, base/math.Sqrt(ratio))
	longest := min(beats*0.3, base*math.Sqrt(ratio))
	if longest < shortest {
		longest = shortest
	}
	palette := geomspace(shortest, longest, kinds)

	weights := make([]float64, kinds)
	if t.DurationCV > 0.7 {
		// bimodal: short bursts and long sustains
		for i := range weights {
			weights[i] = 1
		}
		weights[0], weights[kinds-1] = 2, 2
	} else {
		for i := range weights {
			weights[i] = float64(kinds - i)
		}
	}

	n := max(4, int(t.Density*beats))
	raw := make([]float64, n)
	total := 0.0
	for i := range raw {
		raw[i] = palette[choose(rng, weights)] * uniform(rng, 0.88, 1.12)
		total += raw[i]
	}
	// note count stays fixed; durations stretch to fill the span
	for i := range raw {
		raw[i] *= beats / total
	}
	return raw
}

func walkPitches(scale theory.Scale, t style.Target, n, lo, hi int, rng *rand.Rand) []int {
	if n == 0 {
		return nil
	}
	pitch := scale.StepWithin(t.PitchCenter, 0, lo, hi)
	direction, run := 1, 0
	out := make([]int, n)
	out[0] = pitch

	for i := 1; i < n; i++ {
		run++
		change := t.DirectionChange
		if float64(run) > t.RunLength {
			over := (float64(run) - t.RunLength) / t.RunLength
			change = min(0.95, change+over*0.3)
		}
		switch {
		case pitch >= hi-2:
			change = pick(direction == 1, 0.9, 0.1)
		case pitch <= lo+2:
			change = pick(direction == -1, 0.9, 0.1)
		}
		if (direction == 1 && t.ContourBias < 0) || (direction == -1 && t.ContourBias > 0) {
			change += math.Abs(t.ContourBias) * 0.2
		}
		if rng.Float64() < change {
			direction, run = -direction, 0
		}

		size := 1
		r := rng.Float64()
		switch {
		case r < t.StepRatio:
		case r < 1-t.LeapProbability:
			size = 2 + rng.IntN(2)
		default:
			size = 4 + rng.IntN(4)
		}
		next := scale.StepWithin(pitch, direction*size, lo, hi)

		// chromatic pitch classes inflate measured chromaticism quickly
		if p := t.Chromaticism * 0.15; p > 0 && rng.Float64() < p {
			next = scale.ChromaticNeighbors(next)[rng.IntN(2)]
		}
		if rng.Float64() < 0.05 {
			next = pitch
		}
		pitch = min(max(next, lo), hi)
		out[i] = pitch
	}
	return out
}

// phrase shapes velocity with a bell arc peaking 40% into each phrase, or a
// flat level with light jitter when arcs are off.
func phrase(t style.Target, durations []float64, rng *rand.Rand) []int {
	n := len(durations)
	out := make([]int, n)
	if !t.PhraseArc {
		for i := range out {
			out[i] = int(70 + uniform(rng, -8, 8))
		}
		return out
	}

	acc, start := 0.0, 0
	for i := range durations {
		acc += durations[i]
		if acc < t.PhraseBeats && i != n-1 {
			continue
		}
		length := i - start + 1
		for j := 0; j < length; j++ {
			pos := float64(j) / float64(max(1, length-1))
			arc := max(0, 1-math.Pow((pos-0.4)/0.45, 2))
			out[start+j] = int(60 + arc*30 + uniform(rng, -4, 4))
		}
		start, acc = i+1, 0
	}
	return out
}

var transpositions = []int{0, 0, 0, 2, -2, 5, 7}

// repeatMotif copies the opening motif over later material, sometimes
// transposed, snapping transposed notes back into the scale and window.
func repeatMotif(pitches []int, rate float64, scale theory.Scale, lo, hi int, rng *rand.Rand) []int {
	if len(pitches) < 8 {
		return pitches
	}
	size := min(8, max(4, int(float64(len(pitches))*0.15)))
	motif := pitches[:size]
	out := append([]int(nil), pitches...)

	for i := size; i < len(out)-size; {
		if rng.Float64() >= rate*0.6 {
			i++
			continue
		}
		shift := transpositions[rng.IntN(len(transpositions))]
		for j, p := range motif {
			p += shift
			if !scale.Contains(p) || p < lo || p > hi {
				p = scale.StepWithin(p, 0, lo, hi)
			}
			out[i+j] = p
		}
		i += size
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

func choose(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

func geomspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	ratio := math.Pow(hi/lo, 1/float64(n-1))
	v := lo
	for i := range out {
		out[i] = v
		v *= ratio
	}
	out[n-1] = hi
	return out
}
