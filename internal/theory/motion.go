package theory

// Motion classifies how two voices move between consecutive steps.
type Motion int

const (
	MotionStatic Motion = iota
	MotionOblique
	MotionContrary
	MotionSimilar
	MotionParallel
)

func (m Motion) String() string {
	switch m {
	case MotionOblique:
		return "oblique"
	case MotionContrary:
		return "contrary"
	case MotionSimilar:
		return "similar"
	case MotionParallel:
		return "parallel"
	}
	return "static"
}

// ClassifyMotion compares an upper and a lower voice moving from one step to the next.
func ClassifyMotion(upperFrom, upperTo, lowerFrom, lowerTo int) Motion {
	du, dl := upperTo-upperFrom, lowerTo-lowerFrom
	switch {
	case du == 0 && dl == 0:
		return MotionStatic
	case du == 0 || dl == 0:
		return MotionOblique
	case Sign(du) != Sign(dl):
		return MotionContrary
	case du == dl:
		return MotionParallel
	}
	return MotionSimilar
}

// IsParallelPerfect reports two voices moving in the same direction from one
// perfect interval into the same perfect interval class (P1/P8 or P5,
// compounds included).
func IsParallelPerfect(upperFrom, upperTo, lowerFrom, lowerTo int) bool {
	du, dl := upperTo-upperFrom, lowerTo-lowerFrom
	if du == 0 || dl == 0 || Sign(du) != Sign(dl) {
		return false
	}
	from, to := SimpleInterval(upperFrom, lowerFrom), SimpleInterval(upperTo, lowerTo)
	return IsPerfect(from) && IsPerfect(to) && from == to
}

// IsDirectPerfect reports similar motion into a perfect interval, not already
// parallel, where the upper voice moves by more than leap semitones.
func IsDirectPerfect(upperFrom, upperTo, lowerFrom, lowerTo, leap int) bool {
	du, dl := upperTo-upperFrom, lowerTo-lowerFrom
	if du == 0 || dl == 0 || Sign(du) != Sign(dl) {
		return false
	}
	if !IsPerfect(upperTo - lowerTo) {
		return false
	}
	if IsParallelPerfect(upperFrom, upperTo, lowerFrom, lowerTo) {
		return false
	}
	return Abs(du) > leap
}
