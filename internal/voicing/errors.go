package voicing

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// ErrInfeasible is the sentinel behind every InfeasibleError.
var ErrInfeasible = errors.New("no feasible voicing")

// ErrVoiceCount is returned when a previous voicing does not match the
// configured number of voices.
var ErrVoiceCount = errors.New("voice count mismatch")

// Constraint names the hard constraint that eliminated the last candidate.
type Constraint string

const (
	ConstraintRange    Constraint = "range"
	ConstraintSpacing  Constraint = "spacing"
	ConstraintDoubling Constraint = "doubling"
	ConstraintParallel Constraint = "parallel-motion"
)

// InfeasibleError reports which constraint left no candidates for a chord.
// Step is the index within a progression, or -1 for a single request.
type InfeasibleError struct {
	Constraint Constraint
	Chord      theory.Chord
	Step       int
}

func (e *InfeasibleError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("no feasible voicing for %s at step %d: %s constraint eliminated all candidates", e.Chord, e.Step, e.Constraint)
	}
	return fmt.Sprintf("no feasible voicing for %s: %s constraint eliminated all candidates", e.Chord, e.Constraint)
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

func infeasible(c Constraint, chord theory.Chord) *InfeasibleError {
	return &InfeasibleError{Constraint: c, Chord: chord, Step: -1}
}
