package fjsp_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

// smallText is a 3-job, 3-machine instance with 1-based machines and a
// Brandimarte-style flexibility token in the header.
//
//	job 0: op0 {M0:3, M1:5}  op1 {M2:2}
//	job 1: op0 {M0:4, M2:6}  op1 {M1:3}  op2 {M0:2, M1:2}
//	job 2: op0 {M1:7}
const smallText = `3 3 1.5
2 2 1 3 2 5 1 3 2
3 2 1 4 3 6 1 2 3 2 1 2 2 2
1 1 2 7
`

// smallKey decodes smallText to the schedule worked out in TestDecode_SmallInstance.
var smallKey = []float64{
	0.1, 0.9, 0.7, 0.0, 0.5, 0.3,
	0.5, 0.6, 0.1, 0.2, 0.3, 0.4,
}

func mustParse(t *testing.T, text string) *fjsp.Instance {
	t.Helper()
	inst, err := fjsp.ParseInstance(strings.NewReader(text))
	require.NoError(t, err)
	return inst
}

func smallInstance(t *testing.T) *fjsp.Instance {
	t.Helper()
	inst := mustParse(t, smallText)
	require.NoError(t, inst.Validate())
	return inst
}

func randomKey(rng *rand.Rand, inst *fjsp.Instance) []float64 {
	key := make([]float64, inst.KeyLength())
	for i := range key {
		key[i] = rng.Float64()
	}
	return key
}

// randomInstances returns a deterministic mix of instance shapes.
func randomInstances(seed int64) []*fjsp.Instance {
	rng := rand.New(rand.NewSource(seed))
	shapes := [][2]int{{1, 1}, {2, 3}, {5, 4}, {10, 6}, {15, 8}, {20, 5}}
	out := make([]*fjsp.Instance, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, fjsp.RandomInstance(s[0], s[1], 1, 20, rng))
	}
	return out
}
