package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{0, 1, 2, 2}, []int{0, 1, 2, 0}), 1e-12)
	assert.Zero(t, Accuracy(nil, nil))
	assert.Zero(t, Accuracy([]int{1}, []int{1, 2}))
}

func TestClassificationReport(t *testing.T) {
	yTrue := []int{0, 0, 0, 1, 1, 2}
	yPred := []int{0, 0, 1, 1, 2, 2}
	r := ClassificationReport(yTrue, yPred, []int{0, 1, 2})

	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-12)
	assert.Equal(t, [][]int{{2, 1, 0}, {0, 1, 1}, {0, 0, 1}}, r.Confusion)

	home := r.Classes[0]
	assert.Equal(t, 3, home.Support)
	assert.InDelta(t, 1.0, home.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, home.Recall, 1e-12)
	assert.InDelta(t, 0.8, home.F1, 1e-12)

	assert.Equal(t, 6, r.MacroAvg.Support)
	assert.Equal(t, -1, r.WeightedAvg.Label)
	assert.InDelta(t, (2.0/3.0+0.5+1.0)/3.0, r.MacroAvg.Recall, 1e-12)
	assert.InDelta(t, (1.0+0.5+0.5)/3.0, r.MacroAvg.Precision, 1e-12)

	// Supports are 3, 2 and 1.
	assert.Equal(t, 6, r.WeightedAvg.Support)
	assert.InDelta(t, (3*1.0+2*0.5+1*0.5)/6.0, r.WeightedAvg.Precision, 1e-12)
	assert.InDelta(t, (3*2.0/3.0+2*0.5+1*1.0)/6.0, r.WeightedAvg.Recall, 1e-12)
	assert.InDelta(t, (3*0.8+2*0.5+1*2.0/3.0)/6.0, r.WeightedAvg.F1, 1e-12)
}

func TestClassificationReportNoPredictionsForClass(t *testing.T) {
	r := ClassificationReport([]int{0, 1}, []int{0, 0}, []int{0, 1, 2})
	assert.Zero(t, r.Classes[1].Precision)
	assert.Zero(t, r.Classes[2].Support)
}
