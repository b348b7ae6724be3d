package model

// Accuracy is the fraction of positions where yTrue and yPred agree.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 scores one class against the rest.
func PrecisionRecallF1(yTrue []int, yPred []int, positive int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		if yPred[i] == positive && yTrue[i] == positive {
			tp++
		}
		if yPred[i] == positive && yTrue[i] != positive {
			fp++
		}
		if yPred[i] != positive && yTrue[i] == positive {
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// ClassMetrics are the one-vs-rest scores for a single class.
type ClassMetrics struct {
	Label     int     `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a multi-class classification report.
type Report struct {
	Accuracy    float64        `json:"accuracy"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Confusion   [][]int        `json:"confusion"` // rows: true class, cols: predicted class
}

// ConfusionMatrix counts (true, predicted) pairs with rows and columns in
// labels order. Pairs whose labels are not listed are ignored.
func ConfusionMatrix(yTrue, yPred []int, labels []int) [][]int {
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}
	m := make([][]int, len(labels))
	for i := range m {
		m[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		t, okT := pos[yTrue[i]]
		p, okP := pos[yPred[i]]
		if okT && okP {
			m[t][p]++
		}
	}
	return m
}

// ClassificationReport scores yPred against yTrue for every label.
func ClassificationReport(yTrue, yPred []int, labels []int) Report {
	r := Report{
		Accuracy:  Accuracy(yTrue, yPred),
		Confusion: ConfusionMatrix(yTrue, yPred, labels),
	}
	total := 0
	for i, lab := range labels {
		p, rec, f1 := PrecisionRecallF1(yTrue, yPred, lab)
		support := 0
		for _, v := range r.Confusion[i] {
			support += v
		}
		r.Classes = append(r.Classes, ClassMetrics{Label: lab, Precision: p, Recall: rec, F1: f1, Support: support})
		total += support
	}
	if len(labels) == 0 {
		return r
	}
	for _, c := range r.Classes {
		r.MacroAvg.Precision += c.Precision / float64(len(labels))
		r.MacroAvg.Recall += c.Recall / float64(len(labels))
		r.MacroAvg.F1 += c.F1 / float64(len(labels))
		if total > 0 {
			w := float64(c.Support) / float64(total)
			r.WeightedAvg.Precision += c.Precision * w
			r.WeightedAvg.Recall += c.Recall * w
			r.WeightedAvg.F1 += c.F1 * w
		}
	}
	r.MacroAvg.Label = -1
	r.WeightedAvg.Label = -1
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r
}
