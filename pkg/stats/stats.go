package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one column.
type Summary struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Median float64
	Max    float64
}

// Column copies column j out of X.
func Column(X [][]float64, j int) []float64 {
	col := make([]float64, len(X))
	for i := range X {
		col[i] = X[i][j]
	}
	return col
}

// Describe summarizes each column of X. names labels the columns and may
// be shorter than the column count.
func Describe(X [][]float64, names []string) []Summary {
	if len(X) == 0 {
		return nil
	}
	out := make([]Summary, len(X[0]))
	for j := range out {
		col := Column(X, j)
		sort.Float64s(col)
		mean, variance := stat.PopMeanVariance(col, nil)
		s := Summary{
			Count:  len(col),
			Mean:   mean,
			Std:    math.Sqrt(variance),
			Min:    floats.Min(col),
			Median: stat.Quantile(0.5, stat.Empirical, col, nil),
			Max:    floats.Max(col),
		}
		if j < len(names) {
			s.Name = names[j]
		}
		out[j] = s
	}
	return out
}
