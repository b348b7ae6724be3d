package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fence is the Tukey fence for one column: values outside [Low, High]
// count as outliers.
type Fence struct {
	Name     string
	Low      float64
	High     float64
	Outliers int
}

// TukeyFences computes Q1-k*IQR and Q3+k*IQR per column of X and counts
// the values falling outside. k is usually 1.5.
func TukeyFences(X [][]float64, names []string, k float64) []Fence {
	if len(X) == 0 {
		return nil
	}
	out := make([]Fence, len(X[0]))
	for j := range out {
		col := Column(X, j)
		sort.Float64s(col)
		q1 := stat.Quantile(0.25, stat.Empirical, col, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, col, nil)
		iqr := q3 - q1
		f := Fence{Low: q1 - k*iqr, High: q3 + k*iqr}
		for _, v := range col {
			if v < f.Low || v > f.High {
				f.Outliers++
			}
		}
		if j < len(names) {
			f.Name = names[j]
		}
		out[j] = f
	}
	return out
}
