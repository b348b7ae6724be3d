package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"plpredict/pkg/loader"
)

// ParamGrid lists the values tried for each hyperparameter. A MaxDepth of
// 0 means unbounded.
type ParamGrid struct {
	NEstimators     []int `json:"n_estimators"`
	MaxDepth        []int `json:"max_depth"`
	MinSamplesSplit []int `json:"min_samples_split"`
	MinSamplesLeaf  []int `json:"min_samples_leaf"`
}

// DefaultParamGrid is the grid the production model is tuned over.
func DefaultParamGrid() ParamGrid {
	return ParamGrid{
		NEstimators:     []int{100, 200},
		MaxDepth:        []int{10, 20, 0},
		MinSamplesSplit: []int{2, 5},
		MinSamplesLeaf:  []int{1, 2},
	}
}

// Candidates expands the grid into every combination, n_estimators
// varying fastest.
func (g ParamGrid) Candidates() ([]Params, error) {
	if len(g.NEstimators) == 0 || len(g.MaxDepth) == 0 || len(g.MinSamplesSplit) == 0 || len(g.MinSamplesLeaf) == 0 {
		return nil, errors.New("gridsearch: every grid dimension needs at least one value")
	}
	var out []Params
	for _, depth := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, n := range g.NEstimators {
					p := Params{NEstimators: n, MaxDepth: depth, MinSamplesSplit: split, MinSamplesLeaf: leaf}
					if n <= 0 || depth < 0 || split < 2 || leaf < 1 {
						return nil, fmt.Errorf("gridsearch: invalid candidate %s", p)
					}
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}

// CVResult is the cross-validated score of one candidate.
type CVResult struct {
	Params     Params    `json:"params"`
	FoldScores []float64 `json:"fold_scores"`
	MeanScore  float64   `json:"mean_score"`
	StdScore   float64   `json:"std_score"`
	Rank       int       `json:"rank"`
}

// SearchResult holds every candidate's score and the winner.
type SearchResult struct {
	Best      Params     `json:"best_params"`
	BestScore float64    `json:"best_score"`
	Results   []CVResult `json:"results"`
}

// GridSearch scores each candidate by mean stratified k-fold accuracy.
type GridSearch struct {
	Grid        ParamGrid
	Folds       int
	Seed        int64
	ClassWeight string
	Jobs        int // concurrent fits; 0 => GOMAXPROCS
}

// Run evaluates every candidate on X, y. The candidate with the highest
// mean score wins; ties keep the earlier candidate.
func (gs *GridSearch) Run(ctx context.Context, X [][]float64, y []int) (*SearchResult, error) {
	candidates, err := gs.Grid.Candidates()
	if err != nil {
		return nil, err
	}
	folds, err := loader.StratifiedKFold(y, gs.Folds)
	if err != nil {
		return nil, err
	}

	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	jobs := gs.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for c, params := range candidates {
		for f := range folds {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				trainIdx := loader.FoldTrain(folds, f)
				rf := NewRandomForest(
					WithParams(params),
					WithClassWeight(gs.ClassWeight),
					WithSeed(gs.Seed),
					WithJobs(1),
				)
				if err := rf.FitContext(ctx, loader.Take(X, trainIdx), loader.Take(y, trainIdx)); err != nil {
					return fmt.Errorf("gridsearch: %s fold %d: %w", params, f, err)
				}
				pred, err := rf.Predict(loader.Take(X, folds[f]))
				if err != nil {
					return err
				}
				scores[c][f] = Accuracy(loader.Take(y, folds[f]), pred)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &SearchResult{Results: make([]CVResult, len(candidates))}
	bestIdx := 0
	for c, params := range candidates {
		mean, variance := stat.PopMeanVariance(scores[c], nil)
		res.Results[c] = CVResult{
			Params:     params,
			FoldScores: scores[c],
			MeanScore:  mean,
			StdScore:   math.Sqrt(variance),
		}
		if mean > res.Results[bestIdx].MeanScore {
			bestIdx = c
		}
	}
	rankResults(res.Results)
	res.Best = res.Results[bestIdx].Params
	res.BestScore = res.Results[bestIdx].MeanScore
	return res, nil
}

func rankResults(results []CVResult) {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].MeanScore > results[order[b]].MeanScore
	})
	for rank, i := range order {
		results[i].Rank = rank + 1
	}
}
