package bench

import "math"

type Number interface {
	~int | ~float64
}

// Stats summarizes one measurement over repeated runs. Std is the sample
// standard deviation and is 0 for fewer than two values.
type Stats[T Number] struct {
	N    int
	Min  T
	Max  T
	Mean float64
	Std  float64
}

type (
	IntStats   = Stats[int]
	FloatStats = Stats[float64]
)

func Summarize[T Number](values []T) Stats[T] {
	s := Stats[T]{N: len(values)}
	if s.N == 0 {
		return s
	}

	s.Min, s.Max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		sum += float64(v)
	}
	s.Mean = sum / float64(s.N)

	if s.N >= 2 {
		variance := 0.0
		for _, v := range values {
			d := float64(v) - s.Mean
			variance += d * d
		}
		s.Std = math.Sqrt(variance / float64(s.N-1))
	}
	return s
}
