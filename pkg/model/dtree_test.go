package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs is separable on feature 0; feature 1 is noise.
func twoBlobs() ([][]float64, []int) {
	X := [][]float64{
		{1, 5}, {2, 3}, {1.5, 9}, {2.5, 1},
		{8, 4}, {9, 2}, {8.5, 7}, {9.5, 6},
	}
	y := []int{0, 0, 0, 0, 2, 2, 2, 2}
	return X, y
}

func TestDecisionTreeSeparatesBlobs(t *testing.T) {
	X, y := twoBlobs()
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))

	assert.Equal(t, y, tree.Predict(X))
	assert.Equal(t, []int{0, 2}, tree.Classes)
	assert.Equal(t, 1, tree.Depth())

	imp := tree.FeatureImportances()
	assert.InDelta(t, 1.0, imp[0], 1e-12)
	assert.Zero(t, imp[1])

	for _, p := range tree.PredictProba([][]float64{{0, 0}, {10, 0}}) {
		assert.Len(t, p, 2)
		assert.InDelta(t, 1.0, p[0]+p[1], 1e-12)
	}
}

func TestDecisionTreeMaxDepthAndMinLeaf(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []int{0, 1, 0, 1, 0, 1}

	stump := NewDecisionTreeClassifier(WithMaxDepth(1), WithRandomState(3))
	require.NoError(t, stump.Fit(X, y))
	assert.LessOrEqual(t, stump.Depth(), 1)

	wide := NewDecisionTreeClassifier(WithMinSamplesLeaf(3), WithRandomState(3))
	require.NoError(t, wide.Fit(X, y))
	for _, n := range wide.Nodes {
		if n.Leaf {
			assert.GreaterOrEqual(t, n.N, 3)
		}
	}
}

func TestDecisionTreeSampleWeights(t *testing.T) {
	// One row per class at the same point: the heavier row wins the leaf.
	X := [][]float64{{0}, {0}}
	y := []int{0, 1}
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.FitSample(X, y, nil, []float64{1, 3}))

	p := tree.PredictProba([][]float64{{0}})[0]
	assert.InDelta(t, 0.25, p[0], 1e-12)
	assert.InDelta(t, 0.75, p[1], 1e-12)
	assert.Equal(t, []int{1}, tree.Predict([][]float64{{0}}))
}

func TestDecisionTreeKeepsClassesMissingFromSample(t *testing.T) {
	X, y := twoBlobs()
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.FitSample(X, y, []int{0, 1, 2}, nil))

	assert.Equal(t, []int{0, 2}, tree.Classes)
	assert.Equal(t, []float64{1, 0}, tree.PredictProba([][]float64{{9, 9}})[0])
}

func TestDecisionTreeFitErrors(t *testing.T) {
	tree := NewDecisionTreeClassifier()
	assert.Error(t, tree.Fit(nil, nil))
	assert.Error(t, tree.Fit([][]float64{{1}, {2}}, []int{0}))
	assert.Error(t, tree.Fit([][]float64{{1}, {2, 3}}, []int{0, 1}))
	assert.Error(t, tree.FitSample([][]float64{{1}}, []int{0}, []int{}, nil))
}

func TestDecisionTreeGobRoundTrip(t *testing.T) {
	X, y := twoBlobs()
	tree := NewDecisionTreeClassifier(WithRandomState(5))
	require.NoError(t, tree.Fit(X, y))

	raw, err := tree.MarshalBinary()
	require.NoError(t, err)

	var back DecisionTreeClassifier
	require.NoError(t, back.UnmarshalBinary(raw))
	assert.Equal(t, tree.PredictProba(X), back.PredictProba(X))

	assert.Error(t, (&DecisionTreeClassifier{}).UnmarshalBinary([]byte("junk")))
}

func TestImpurity(t *testing.T) {
	assert.InDelta(t, 0.5, giniFromWeights([]float64{2, 2}, 4), 1e-12)
	assert.Zero(t, giniFromWeights([]float64{4, 0}, 4))
	assert.InDelta(t, 1.0, entropyFromWeights([]float64{3, 3}, 6), 1e-12)
	assert.Zero(t, entropyFromWeights(nil, 0))
}

func TestDecisionTreeEntropyAndMinDecrease(t *testing.T) {
	X, y := twoBlobs()
	tree := NewDecisionTreeClassifier(WithCriterion("entropy"), WithRandomState(2))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, y, tree.Predict(X))

	// A perfect split only gains 0.5 per unit weight under gini.
	stingy := NewDecisionTreeClassifier(WithMinImpurityDecrease(0.6), WithRandomState(2))
	require.NoError(t, stingy.Fit(X, y))
	assert.Len(t, stingy.Nodes, 1)
	assert.Zero(t, stingy.Depth())
}
