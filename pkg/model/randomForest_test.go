package model

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeClass draws n rows per class around well separated centres, with a
// pure-noise third feature.
func threeClass(n int, seed int64) ([][]float64, []int) {
	r := rand.New(rand.NewSource(seed))
	centres := [][2]float64{{-10, -5}, {0, 0}, {10, 5}}
	var X [][]float64
	var y []int
	for c, ctr := range centres {
		for i := 0; i < n; i++ {
			X = append(X, []float64{
				ctr[0] + r.NormFloat64(),
				ctr[1] + r.NormFloat64(),
				r.Float64() * 50000,
			})
			y = append(y, c)
		}
	}
	return X, y
}

func TestRandomForestFitPredict(t *testing.T) {
	X, y := threeClass(30, 1)
	rf := NewRandomForest(WithNEstimators(25), WithSeed(42))
	require.NoError(t, rf.Fit(X, y))

	assert.Len(t, rf.Trees, 25)
	assert.Equal(t, []int{0, 1, 2}, rf.Classes())

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, Accuracy(y, pred), 0.95)

	probas, err := rf.PredictProba(X)
	require.NoError(t, err)
	for _, p := range probas {
		require.Len(t, p, 3)
		assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-9)
	}

	imp := rf.FeatureImportances()
	assert.InDelta(t, 1.0, imp[0]+imp[1]+imp[2], 1e-9)
	assert.Less(t, imp[2], imp[0])
}

func TestRandomForestDeterministicForSeed(t *testing.T) {
	X, y := threeClass(20, 2)
	fit := func(jobs int) [][]float64 {
		rf := NewRandomForest(WithNEstimators(15), WithSeed(7), WithJobs(jobs), WithClassWeight(ClassWeightBalanced))
		require.NoError(t, rf.Fit(X, y))
		p, err := rf.PredictProba(X)
		require.NoError(t, err)
		return p
	}
	assert.Equal(t, fit(1), fit(4))
}

func TestRandomForestBalancedWeights(t *testing.T) {
	rf := NewRandomForest(WithClassWeight(ClassWeightBalanced))
	rf.Labels = []int{0, 1}
	w := rf.sampleWeights([]int{0, 0, 0, 1})
	assert.InDelta(t, 4.0/6.0, w[0], 1e-12)
	assert.InDelta(t, 2.0, w[3], 1e-12)

	rf.ClassWeight = ""
	assert.Nil(t, rf.sampleWeights([]int{0, 1}))
}

func TestRandomForestErrors(t *testing.T) {
	rf := NewRandomForest(WithNEstimators(3), WithSeed(1))
	_, err := rf.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err, "unfitted forest")

	assert.Error(t, rf.Fit(nil, nil))
	assert.Error(t, rf.Fit([][]float64{{1}}, []int{0, 1}))
	assert.Error(t, NewRandomForest(WithNEstimators(0)).Fit([][]float64{{1}}, []int{0}))

	X, y := threeClass(5, 3)
	require.NoError(t, rf.Fit(X, y))
	_, err = rf.PredictProba([][]float64{{1, 2}})
	assert.Error(t, err, "feature count mismatch")
}

func TestRandomForestHonoursCancellation(t *testing.T) {
	X, y := threeClass(10, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rf := NewRandomForest(WithNEstimators(10), WithSeed(1))
	assert.ErrorIs(t, rf.FitContext(ctx, X, y), context.Canceled)
}

func TestRandomForestGobRoundTrip(t *testing.T) {
	X, y := threeClass(10, 5)
	rf := NewRandomForest(WithParams(Params{NEstimators: 8, MaxDepth: 4, MinSamplesSplit: 2, MinSamplesLeaf: 1}), WithSeed(9))
	require.NoError(t, rf.Fit(X, y))

	raw, err := rf.MarshalBinary()
	require.NoError(t, err)

	var back RandomForest
	require.NoError(t, back.UnmarshalBinary(raw))
	assert.Equal(t, rf.Params(), back.Params())

	want, err := rf.PredictProba(X)
	require.NoError(t, err)
	got, err := back.PredictProba(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = NewRandomForest().MarshalBinary()
	assert.Error(t, err)
}

func TestParamsString(t *testing.T) {
	p := Params{NEstimators: 100, MaxDepth: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	assert.Equal(t, "n_estimators=100 max_depth=None min_samples_split=2 min_samples_leaf=1", p.String())
	p.MaxDepth = 10
	assert.Contains(t, p.String(), "max_depth=10")
}

func TestRandomForestWithoutBootstrap(t *testing.T) {
	// One feature leaves nothing random: every tree sees the same rows and
	// grows the same splits.
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}}
	y := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	rf := NewRandomForest(WithNEstimators(5), WithBootstrap(false), WithSeed(9))
	require.NoError(t, rf.Fit(X, y))

	assert.False(t, rf.Bootstrap)
	for _, tree := range rf.Trees[1:] {
		assert.Equal(t, rf.Trees[0].Nodes, tree.Nodes)
	}
	pred, err := rf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
}
