package model

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// ClassWeightBalanced weights each class by n / (nClasses * count).
const ClassWeightBalanced = "balanced"

// Params are the forest hyperparameters explored by GridSearch.
type Params struct {
	NEstimators     int `json:"n_estimators"`
	MaxDepth        int `json:"max_depth"` // 0 => unbounded
	MinSamplesSplit int `json:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf"`
}

func (p Params) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("n_estimators=%d max_depth=%s min_samples_split=%d min_samples_leaf=%d",
		p.NEstimators, depth, p.MinSamplesSplit, p.MinSamplesLeaf)
}

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int    // 0 => floor(sqrt(nFeatures))
	Bootstrap       bool
	ClassWeight     string // "" or ClassWeightBalanced
	RandomState     int64
	NJobs           int // 0 => GOMAXPROCS

	// Fitted state
	Trees     []*DecisionTreeClassifier
	Labels    []int // ascending; PredictProba columns follow this order
	NFeatures int
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithClassWeight(cw string) RandomForestOption {
	return func(rf *RandomForest) { rf.ClassWeight = cw }
}
func WithSeed(seed int64) RandomForestOption { return func(rf *RandomForest) { rf.RandomState = seed } }
func WithJobs(n int) RandomForestOption      { return func(rf *RandomForest) { rf.NJobs = n } }
func WithParams(p Params) RandomForestOption {
	return func(rf *RandomForest) {
		rf.NEstimators = p.NEstimators
		rf.MaxDepth = p.MaxDepth
		rf.MinSamplesSplit = p.MinSamplesSplit
		rf.MinSamplesLeaf = p.MinSamplesLeaf
	}
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Params returns the forest's current hyperparameters.
func (rf *RandomForest) Params() Params {
	return Params{
		NEstimators:     rf.NEstimators,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
	}
}

// Fit trains the random forest.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	return rf.FitContext(context.Background(), X, y)
}

// FitContext trains the forest, growing trees concurrently. Tree idx is
// seeded with RandomState+idx so the result does not depend on scheduling.
func (rf *RandomForest) FitContext(ctx context.Context, X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("randomforest: n_estimators=%d", rf.NEstimators)
	}
	p := len(X[0])

	rf.Labels = uniqueSorted(y)
	rf.NFeatures = p
	weights := rf.sampleWeights(y)

	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}

	trees := make([]*DecisionTreeClassifier, rf.NEstimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rf.jobs())

	for i := 0; i < rf.NEstimators; i++ {
		idx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			treeRand := rand.New(rand.NewSource(rf.RandomState + int64(idx)))

			// Bootstrap sampling: an index slice, not a copy of the data.
			sampleIndices := make([]int, n)
			for j := 0; j < n; j++ {
				if rf.Bootstrap {
					sampleIndices[j] = treeRand.Intn(n)
				} else {
					sampleIndices[j] = j
				}
			}

			tree := NewDecisionTreeClassifier(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMinSamplesLeaf(rf.MinSamplesLeaf),
				WithMaxFeatures(maxFeatures),
				WithRandomState(rf.RandomState+int64(idx)),
			)
			if err := tree.FitSample(X, y, sampleIndices, weights); err != nil {
				return fmt.Errorf("randomforest: tree %d: %w", idx, err)
			}
			trees[idx] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForest) jobs() int {
	if rf.NJobs > 0 {
		return rf.NJobs
	}
	return runtime.GOMAXPROCS(0)
}

// sampleWeights returns per-row weights for the configured class weighting,
// or nil for uniform weights.
func (rf *RandomForest) sampleWeights(y []int) []float64 {
	if rf.ClassWeight != ClassWeightBalanced {
		return nil
	}
	counts := make(map[int]int, len(rf.Labels))
	for _, lab := range y {
		counts[lab]++
	}
	k := float64(len(counts))
	w := make([]float64, len(y))
	for i, lab := range y {
		w[i] = float64(len(y)) / (k * float64(counts[lab]))
	}
	return w
}

// Classes returns the class labels in PredictProba column order.
func (rf *RandomForest) Classes() []int { return append([]int(nil), rf.Labels...) }

func (rf *RandomForest) checkInput(X [][]float64) error {
	if len(rf.Trees) == 0 {
		return errors.New("randomforest: not fitted")
	}
	for i, row := range X {
		if len(row) != rf.NFeatures {
			return fmt.Errorf("randomforest: row %d has %d features, want %d", i, len(row), rf.NFeatures)
		}
	}
	return nil
}

// PredictProba averages the trees' leaf distributions for each row.
func (rf *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if err := rf.checkInput(X); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	nTrees := float64(len(rf.Trees))
	for i, x := range X {
		sum := make([]float64, len(rf.Labels))
		for _, t := range rf.Trees {
			probas := t.leaf(x).Probas
			for c := range sum {
				sum[c] += probas[c]
			}
		}
		for c := range sum {
			sum[c] /= nTrees
		}
		out[i] = sum
	}
	return out, nil
}

// Predict returns the class with the highest mean probability. Ties go to
// the smaller label.
func (rf *RandomForest) Predict(X [][]float64) ([]int, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, p := range probas {
		out[i] = rf.Labels[argmaxFloat(p)]
	}
	return out, nil
}

// FeatureImportances is the mean of each tree's normalized impurity
// decrease, renormalized to sum to 1.
func (rf *RandomForest) FeatureImportances() []float64 {
	sum := make([]float64, rf.NFeatures)
	for _, t := range rf.Trees {
		for j, v := range t.FeatureImportances() {
			sum[j] += v
		}
	}
	return normalize(sum)
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (rf *RandomForest) MarshalBinary() ([]byte, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("randomforest: not fitted")
	}
	type plain RandomForest
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*plain)(rf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (rf *RandomForest) UnmarshalBinary(data []byte) error {
	type plain RandomForest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode((*plain)(rf)); err != nil {
		return err
	}
	if len(rf.Trees) == 0 || len(rf.Labels) == 0 || rf.NFeatures == 0 {
		return errors.New("randomforest: decoded forest is empty")
	}
	for i, t := range rf.Trees {
		if t == nil || len(t.Classes) != len(rf.Labels) {
			return fmt.Errorf("randomforest: decoded tree %d is inconsistent", i)
		}
	}
	return nil
}
