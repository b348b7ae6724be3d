package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScalerUsesTrainingStatsOnly(t *testing.T) {
	train := [][]float64{
		{10, 1, 30000},
		{20, 3, 40000},
		{30, 5, 50000},
	}
	s := NewStandardScaler()
	require.NoError(t, s.Fit(train))

	// population std of {10,20,30} is sqrt(200/3)
	std0 := math.Sqrt(200.0 / 3.0)
	assert.InDelta(t, 20, s.Mean[0], 1e-12)
	assert.InDelta(t, std0, s.Std[0], 1e-12)

	heldOut := [][]float64{{100, -4, 45000}}
	got, err := s.Transform(heldOut)
	require.NoError(t, err)

	assert.InDelta(t, (100-20)/std0, got[0][0], 1e-9)
	assert.InDelta(t, (-4-3)/math.Sqrt(8.0/3.0), got[0][1], 1e-9)
	assert.InDelta(t, (45000-40000)/math.Sqrt(2e8/3.0), got[0][2], 1e-9)

	// the held-out row must not have moved the fitted statistics
	assert.InDelta(t, 20, s.Mean[0], 1e-12)
}

func TestStandardScalerFitTransformZeroMeanUnitVariance(t *testing.T) {
	X := [][]float64{{1, 7}, {2, 7}, {3, 7}, {4, 7}}
	Y, err := NewStandardScaler().FitTransform(X)
	require.NoError(t, err)

	col := Column(Y, 0)
	mean, sum2 := 0.0, 0.0
	for _, v := range col {
		mean += v
	}
	mean /= float64(len(col))
	for _, v := range col {
		sum2 += (v - mean) * (v - mean)
	}
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, sum2/float64(len(col)), 1e-12)

	// constant column maps to zero
	for _, row := range Y {
		assert.Equal(t, 0.0, row[1])
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.ErrorIs(t, s.Fit(nil), ErrEmpty)

	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err = s.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestStandardScalerBinaryRoundTrip(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{{1, 10}, {2, 20}, {4, 25}}))

	blob, err := s.MarshalBinary()
	require.NoError(t, err)

	var back StandardScaler
	require.NoError(t, back.UnmarshalBinary(blob))
	assert.True(t, back.Fitted())
	assert.Equal(t, s.Mean, back.Mean)
	assert.Equal(t, s.Std, back.Std)

	want, _ := s.Transform([][]float64{{3, 15}})
	got, err := back.Transform([][]float64{{3, 15}})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = NewStandardScaler().MarshalBinary()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDescribe(t *testing.T) {
	X := [][]float64{{3, 1}, {1, 1}, {2, 1}}
	sum := Describe(X, []string{"a"})
	require.Len(t, sum, 2)
	assert.Equal(t, "a", sum[0].Name)
	assert.Equal(t, "", sum[1].Name)
	assert.Equal(t, 3, sum[0].Count)
	assert.InDelta(t, 2, sum[0].Mean, 1e-12)
	assert.Equal(t, 1.0, sum[0].Min)
	assert.Equal(t, 3.0, sum[0].Max)
	assert.Equal(t, 2.0, sum[0].Median)
	assert.Equal(t, 0.0, sum[1].Std)
}

func TestTukeyFences(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}, {6, 5}, {7, 5}, {100, 5}}
	fences := TukeyFences(X, []string{"attendance"}, 1.5)
	require.Len(t, fences, 2)

	assert.Equal(t, "attendance", fences[0].Name)
	assert.InDelta(t, -4, fences[0].Low, 1e-12)
	assert.InDelta(t, 12, fences[0].High, 1e-12)
	assert.Equal(t, 1, fences[0].Outliers)

	assert.Empty(t, fences[1].Name)
	assert.Zero(t, fences[1].Outliers)

	assert.Nil(t, TukeyFences(nil, nil, 1.5))
}
