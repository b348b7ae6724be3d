package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier over numeric features.
// Fields are exported so a fitted tree can be gob-encoded.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => all features, >0 => features examined per split
	MinImpurityDecrease float64 // minimal weighted impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// Fitted state
	Nodes       []Node    // Nodes[0] is the root
	Classes     []int     // ascending class labels; probas are aligned with it
	NFeatures   int       // feature count seen by Fit
	Importances []float64 // total weighted impurity decrease per feature
}

// Node is one tree node. Internal nodes route x[Feature] <= Threshold to
// Left, everything else to Right.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	N         int       // training rows reaching the node
	Weight    float64   // summed sample weight reaching the node
	Probas    []float64 // weighted class distribution
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MaxDepth:            0,
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		Criterion:           "gini",
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API
// ---------------------------

// Fit trains the tree on every row of X with unit weights.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	return t.FitSample(X, y, nil, nil)
}

// FitSample trains the tree on the rows listed in sample (repeats allowed,
// nil means all rows). weight holds one weight per row of X; nil means 1.
// Classes are taken from the whole of y so trees grown on different
// samples of the same data share the same class order.
func (t *DecisionTreeClassifier) FitSample(X [][]float64, y []int, sample []int, weight []float64) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("dtree: X and y length mismatch")
	}
	if weight != nil && len(weight) != n {
		return errors.New("dtree: X and weight length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
	}

	t.Classes = uniqueSorted(y)
	t.NFeatures = p
	t.Importances = make([]float64, p)
	t.Nodes = t.Nodes[:0]

	if sample == nil {
		sample = make([]int, n)
		for i := range sample {
			sample[i] = i
		}
	}
	if len(sample) == 0 {
		return errors.New("dtree: empty sample")
	}

	b := &builder{
		tree:    t,
		X:       X,
		yIdx:    make([]int, n),
		weight:  weight,
		rnd:     rand.New(rand.NewSource(t.RandomState)),
		nClass:  len(t.Classes),
		maxFeat: p,
	}
	for i, lab := range y {
		b.yIdx[i] = classIndex(lab, t.Classes)
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		b.maxFeat = t.MaxFeatures
	}
	b.impurity = giniFromWeights
	if t.Criterion == "entropy" {
		b.impurity = entropyFromWeights
	}

	b.build(append([]int(nil), sample...), 0)
	return nil
}

// Predict returns the most probable class label for each row.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		out[i] = t.Classes[argmaxFloat(t.leaf(X[i]).Probas)]
	}
	return out
}

// PredictProba returns per-class probability vectors aligned with Classes.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = append([]float64(nil), t.leaf(X[i]).Probas...)
	}
	return out
}

// FeatureImportances returns the impurity decrease per feature normalized
// to sum to 1. A tree that never split returns all zeros.
func (t *DecisionTreeClassifier) FeatureImportances() []float64 {
	return normalize(t.Importances)
}

// Depth returns the length of the longest root-to-leaf path.
func (t *DecisionTreeClassifier) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (t *DecisionTreeClassifier) MarshalBinary() ([]byte, error) {
	type plain DecisionTreeClassifier
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*plain)(t)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (t *DecisionTreeClassifier) UnmarshalBinary(data []byte) error {
	type plain DecisionTreeClassifier
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode((*plain)(t)); err != nil {
		return err
	}
	if len(t.Nodes) == 0 || len(t.Classes) == 0 {
		return errors.New("dtree: decoded tree is empty")
	}
	return nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

type builder struct {
	tree     *DecisionTreeClassifier
	X        [][]float64
	yIdx     []int
	weight   []float64
	rnd      *rand.Rand
	nClass   int
	maxFeat  int
	impurity func(counts []float64, total float64) float64
}

// splitResult holds the best split found for a node.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

// pair is a feature value and its row index.
type pair struct {
	v float64
	i int
}

func (b *builder) w(i int) float64 {
	if b.weight == nil {
		return 1
	}
	return b.weight[i]
}

func (b *builder) build(idx []int, depth int) int {
	t := b.tree
	counts := make([]float64, b.nClass)
	total := 0.0
	for _, ii := range idx {
		w := b.w(ii)
		counts[b.yIdx[ii]] += w
		total += w
	}

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Leaf:   true,
		N:      len(idx),
		Weight: total,
		Probas: weightsToProbas(counts, total),
	})

	if isPure(counts) ||
		len(idx) < t.MinSamplesSplit ||
		len(idx) < 2*max(t.MinSamplesLeaf, 1) ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return id
	}

	parentImpurity := b.impurity(counts, total)
	best := b.findBestSplit(idx, counts, total, parentImpurity)
	if best.feature == -1 || best.gain <= t.MinImpurityDecrease*total {
		return id
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, ii := range idx {
		if b.X[ii][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, ii)
		} else {
			rightIdx = append(rightIdx, ii)
		}
	}
	t.Importances[best.feature] += best.gain

	left := b.build(leftIdx, depth+1)
	right := b.build(rightIdx, depth+1)

	node := &t.Nodes[id]
	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = left
	node.Right = right
	return id
}

// findBestSplit visits features in a random order and scores up to maxFeat
// non-constant ones. gain is the weighted impurity decrease
// total*parent - wL*left - wR*right.
func (b *builder) findBestSplit(idx []int, counts []float64, total, parentImpurity float64) splitResult {
	best := splitResult{feature: -1}
	p := len(b.X[0])
	order := b.rnd.Perm(p)
	minLeaf := max(b.tree.MinSamplesLeaf, 1)

	valid := make([]pair, len(idx))
	left := make([]float64, b.nClass)
	right := make([]float64, b.nClass)

	examined := 0
	for _, f := range order {
		if examined >= b.maxFeat {
			break
		}
		for k, ii := range idx {
			valid[k] = pair{b.X[ii][f], ii}
		}
		sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })
		if valid[0].v == valid[len(valid)-1].v {
			continue
		}
		examined++

		for c := range left {
			left[c] = 0
		}
		wLeft := 0.0
		for s := 1; s < len(valid); s++ {
			prev := valid[s-1]
			w := b.w(prev.i)
			left[b.yIdx[prev.i]] += w
			wLeft += w

			if valid[s].v == prev.v {
				continue
			}
			if s < minLeaf || len(valid)-s < minLeaf {
				continue
			}
			for c := range right {
				right[c] = counts[c] - left[c]
			}
			wRight := total - wLeft
			gain := total*parentImpurity - wLeft*b.impurity(left, wLeft) - wRight*b.impurity(right, wRight)
			if gain > best.gain {
				thr := (prev.v + valid[s].v) / 2.0
				if thr == valid[s].v {
					thr = prev.v
				}
				best = splitResult{gain: gain, feature: f, threshold: thr}
			}
		}
	}
	return best
}

func (t *DecisionTreeClassifier) leaf(x []float64) Node {
	if len(t.Nodes) == 0 {
		p := make([]float64, max(len(t.Classes), 1))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return Node{Leaf: true, Probas: p}
	}
	node := t.Nodes[0]
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromWeights(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := c / total
		res -= p * p
	}
	return res
}

func entropyFromWeights(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := c / total
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func weightsToProbas(counts []float64, total float64) []float64 {
	p := make([]float64, len(counts))
	if total <= 0 {
		return p
	}
	for i := range counts {
		p[i] = counts[i] / total
	}
	return p
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns index of label in classes slice.
func classIndex(label int, classes []int) int {
	i := sort.SearchInts(classes, label)
	if i < len(classes) && classes[i] == label {
		return i
	}
	return 0
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{}, 4)
	out := make([]int, 0, 4)
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
