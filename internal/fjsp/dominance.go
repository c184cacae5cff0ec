package fjsp

// Dominates reports whether a Pareto-dominates b when every objective is
// minimized: a is no worse than b + Epsilon everywhere and better than
// b - Epsilon somewhere.
func Dominates(a, b Objectives) bool {
	better := false
	for i := range a {
		if a[i] > b[i]+Epsilon {
			return false
		}
		if a[i] < b[i]-Epsilon {
			better = true
		}
	}
	return better
}

// DominatesSlice is Dominates for slices. Vectors that do not have exactly
// NumObjectives entries are never compared and yield false.
func DominatesSlice(a, b []float64) bool {
	if len(a) != NumObjectives || len(b) != NumObjectives {
		return false
	}
	return Dominates(Objectives(a), Objectives(b))
}
