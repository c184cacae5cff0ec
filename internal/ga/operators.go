package ga

import (
	"math/rand"

	"github.com/luishpmendes/mofjssp/internal/opt"
)

// randomKey заполняет ключ равномерно распределёнными значениями из [0,1).
func randomKey(k []float64, rng *rand.Rand) {
	for i := range k {
		k[i] = rng.Float64()
	}
}

// tournamentSelect реализует турнирный отбор.
// Побеждает особь с меньшим рангом, при равенстве - с большей crowding distance.
func tournamentSelect(rank []int, crowd []float64, tournamentSize int, rng *rand.Rand) int {
	best := rng.Intn(len(rank))
	for i := 1; i < tournamentSize; i++ {
		cand := rng.Intn(len(rank))
		if opt.Better(rank, crowd, cand, best) {
			best = cand
		}
	}
	return best
}

// biasedCrossover реализует смещённый равномерный кроссовер:
// каждый ген берётся от лучшего родителя с вероятностью bias.
func biasedCrossover(best, other, child []float64, bias float64, rng *rand.Rand) {
	for i := range child {
		if rng.Float64() < bias {
			child[i] = best[i]
		} else {
			child[i] = other[i]
		}
	}
}

// mutateReset реализует мутацию сбросом:
// каждый ген с вероятностью rate заменяется случайным значением.
func mutateReset(k []float64, rate float64, rng *rand.Rand) {
	if rate <= 0 {
		return
	}
	for i := range k {
		if rng.Float64() < rate {
			k[i] = rng.Float64()
		}
	}
}
